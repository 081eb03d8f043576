package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrOverlappingEdits indicates two edits touch the same byte range.
var ErrOverlappingEdits = errors.New("overlapping edits")

// Edit replaces text[Start:End] with Replacement.
// Offsets always refer to the original text, never to a partially edited one.
type Edit struct {
	Start       int
	End         int
	Replacement string
}

// ApplyEdits applies all edits to text in a single pass, from the highest
// offset to the lowest, so earlier offsets stay valid while splicing.
// Edits may be given in any order but must not overlap.
func ApplyEdits(text string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return text, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(text) {
			return "", fmt.Errorf("edit [%d:%d] out of range for text of length %d", e.Start, e.End, len(text))
		}
		// sorted[i-1] starts after e; it must not begin before e ends.
		if i > 0 && sorted[i-1].Start < e.End {
			return "", fmt.Errorf("%w: [%d:%d] and [%d:%d]",
				ErrOverlappingEdits, e.Start, e.End, sorted[i-1].Start, sorted[i-1].End)
		}
	}

	// Splice back to front into a builder sized for the result.
	size := len(text)
	for _, e := range sorted {
		size += len(e.Replacement) - (e.End - e.Start)
	}

	var b strings.Builder
	b.Grow(size)
	cursor := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		b.WriteString(text[cursor:e.Start])
		b.WriteString(e.Replacement)
		cursor = e.End
	}
	b.WriteString(text[cursor:])

	return b.String(), nil
}
