package pipeline

import (
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alnah/go-mailinline/internal/imagecodec"
)

// imgPattern matches <img> tags whose src points at a png/jpg/jpeg/webp file.
// Group 1 is the URL, group 2 the extension. Known approximation: one
// attribute pattern, no full HTML parse.
var imgPattern = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+\.(png|jpe?g|webp))["'][^>]*>`)

// commentPattern matches HTML comments, whose contents are never scanned.
var commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

// MIMEType returns the MIME type for a URL or path based on its extension.
func MIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// ImageRef is one image reference found in a document.
type ImageRef struct {
	TagStart int // offset of "<img" in the document
	TagEnd   int
	URLStart int // offset of the URL inside the document
	URLEnd   int
	URL      string
	Format   imagecodec.Format
	Path     string // absolute path; the first candidate tried when Missing
	Missing  bool
}

// Tag returns the full matched tag text from the document it was resolved from.
func (r ImageRef) Tag(document string) string {
	return document[r.TagStart:r.TagEnd]
}

// ResolveImages scans document text for image references and maps each URL
// to a file on disk. Candidates are tried against baseDirs in order; the first
// existing regular file inside its base dir wins. References that resolve to
// nothing are returned with Missing set. Matches inside comments, remote URLs,
// and data URIs are skipped. Results are in document order.
func ResolveImages(document string, baseDirs ...string) []ImageRef {
	matches := imgPattern.FindAllStringSubmatchIndex(document, -1)
	if len(matches) == 0 {
		return nil
	}

	comments := commentPattern.FindAllStringIndex(document, -1)

	refs := make([]ImageRef, 0, len(matches))
	for _, m := range matches {
		if insideAny(m[0], comments) {
			continue
		}

		rawURL := document[m[2]:m[3]]
		if !isLocalReference(rawURL) {
			continue
		}

		ref := ImageRef{
			TagStart: m[0],
			TagEnd:   m[1],
			URLStart: m[2],
			URLEnd:   m[3],
			URL:      rawURL,
			Format:   imagecodec.FormatFromExt(document[m[4]:m[5]]),
		}
		ref.Path, ref.Missing = locate(rawURL, baseDirs)
		refs = append(refs, ref)
	}

	return refs
}

// locate returns the first existing file for rawURL under baseDirs.
// When nothing exists, it returns the first candidate and missing=true.
func locate(rawURL string, baseDirs []string) (path string, missing bool) {
	names := []string{rawURL}
	if unescaped, err := url.PathUnescape(rawURL); err == nil && unescaped != rawURL {
		names = append(names, unescaped)
	}

	var first string
	for _, name := range names {
		for _, candidate := range candidates(name, baseDirs) {
			if first == "" {
				first = candidate
			}
			if isRegularFile(candidate) {
				return candidate, false
			}
		}
	}
	return first, true
}

// candidates lists absolute paths to try for name, skipping any that escape
// their base directory. Root-relative URLs ("/assets/a.png") are tried under
// each base dir before being taken as a filesystem path.
func candidates(name string, baseDirs []string) []string {
	var out []string
	for _, dir := range baseDirs {
		if dir == "" {
			continue
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		p := filepath.Join(absDir, filepath.FromSlash(strings.TrimPrefix(name, "/")))
		if !isPathUnderDir(p, absDir) {
			continue
		}
		out = append(out, p)
	}
	if filepath.IsAbs(name) {
		out = append(out, filepath.Clean(name))
	}
	return out
}

// insideAny reports whether offset falls inside one of the [start, end) spans.
func insideAny(offset int, spans [][]int) bool {
	for _, s := range spans {
		if offset >= s[0] && offset < s[1] {
			return true
		}
	}
	return false
}

// isLocalReference returns false for remote URLs and data URIs.
func isLocalReference(u string) bool {
	lower := strings.ToLower(u)
	return !strings.HasPrefix(lower, "http://") &&
		!strings.HasPrefix(lower, "https://") &&
		!strings.HasPrefix(lower, "data:") &&
		!strings.HasPrefix(lower, "cid:") &&
		!strings.HasPrefix(lower, "//")
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanPath := filepath.Clean(absPath)
	cleanDir := filepath.Clean(dir)

	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}

	return strings.HasPrefix(cleanPath+string(filepath.Separator), cleanDir)
}

// isRegularFile returns true if the path exists and is not a directory.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
