// Package devserver serves live previews of email templates.
//
// Every request re-discovers the source directory and runs the template
// through the build pipeline, so edits show up on reload without a rebuild.
// Short URLs ("/welcome", "/welcome.html") are rewritten onto the source
// prefix, and "/src/assets/..." onto the raw assets directory.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mailinline "github.com/alnah/go-mailinline"
)

// ErrListen indicates the server could not bind its address.
var ErrListen = errors.New("listen failed")

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// sourceStyle is the chroma style for ?view=source.
const sourceStyle = "github"

// Response headers describing the pipeline result.
const (
	HeaderStage  = "X-Mailinline-Stage"
	HeaderIssues = "X-Mailinline-Issues"
)

// Transformer runs one template through the pipeline.
type Transformer interface {
	Transform(ctx context.Context, t mailinline.Template, source string) mailinline.DocumentResult
}

// Config configures the preview server.
type Config struct {
	Host         string
	Port         int    // 0 picks a free port
	SourceDir    string // templates
	AssetsDir    string // served raw under AssetsPrefix
	SourcePrefix string // defaults to mailinline.DefaultSourcePrefix
	AssetsPrefix string // defaults to mailinline.DefaultAssetsPrefix
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Server previews templates over HTTP.
type Server struct {
	cfg         Config
	transformer Transformer
	logger      *slog.Logger
	router      chi.Router
}

// New creates a Server. A nil logger discards output.
func New(cfg Config, tr Transformer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.SourcePrefix == "" {
		cfg.SourcePrefix = mailinline.DefaultSourcePrefix
	}
	if cfg.AssetsPrefix == "" {
		cfg.AssetsPrefix = mailinline.DefaultAssetsPrefix
	}

	s := &Server{cfg: cfg, transformer: tr, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.rewrite)

	r.Get("/", s.handleIndex)
	r.Get(cfg.SourcePrefix+"/{file}", s.handleTemplate)
	if cfg.AssetsDir != "" {
		r.Handle(cfg.AssetsPrefix+"/*",
			http.StripPrefix(cfg.AssetsPrefix, http.FileServer(http.Dir(cfg.AssetsDir))))
	}

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes discovers the current templates.
func (s *Server) Routes() (*mailinline.RouteTable, error) {
	templates, err := mailinline.DiscoverTemplates(s.cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	return mailinline.BuildRouteTable(templates)
}

// URLs returns the preview URL of every template under baseURL.
func (s *Server) URLs(baseURL string) ([]string, error) {
	rt, err := s.Routes()
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, rt.Len())
	for _, t := range rt.Templates() {
		urls = append(urls, baseURL+"/"+t.Route)
	}
	return urls, nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
// ready, if non-nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrListen, s.cfg.Addr(), err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	s.logger.Info("preview server started", "addr", addr)
	if ready != nil {
		ready(addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	s.logger.Info("preview server stopped")
	return nil
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// rewrite maps short template URLs and source-relative asset URLs onto the
// routes the router serves.
func (s *Server) rewrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			rt, err := s.Routes()
			if err != nil {
				s.logger.Warn("template discovery failed", "error", err)
			} else {
				for _, route := range rt.ProxyRoutes(s.cfg.SourcePrefix, s.cfg.AssetsPrefix) {
					if target, ok := route.Rewrite(r.URL.Path); ok {
						r.URL.Path = target
						r.URL.RawPath = ""
						break
					}
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := r.URL.Path
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Email templates</title></head>
<body>
<h1>Email templates</h1>
{{if .}}<ul>
{{range .}}<li><a href="/{{.Route}}">{{.Route}}</a> (<a href="/{{.Route}}?view=source">source</a>, <a href="/{{.Route}}?raw=1">raw</a>)</li>
{{end}}</ul>{{else}}<p>No templates found.</p>{{end}}
</body></html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	rt, err := s.Routes()
	if err != nil {
		s.logger.Warn("template discovery failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, rt.Templates()); err != nil {
		s.logger.Warn("rendering index", "error", err)
	}
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	rt, err := s.Routes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	t, ok := rt.Lookup(chi.URLParam(r, "file"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	source, err := os.ReadFile(t.Path) // #nosec G304 -- path comes from discovery
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	if q.Get("raw") != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(source)
		return
	}

	res := s.transformer.Transform(r.Context(), t, string(source))
	for _, issue := range res.Issues {
		s.logger.Warn("preview issue", "doc", t.Filename, "stage", issue.Stage, "url", issue.URL, "error", issue.Err)
	}
	if res.Err != nil {
		s.logger.Error("preview failed", "doc", t.Filename, "error", res.Err)
	}

	w.Header().Set(HeaderStage, res.Stage.String())
	w.Header().Set(HeaderIssues, strconv.Itoa(len(res.Issues)))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if q.Get("view") == "source" {
		if err := highlight(w, res.HTML); err != nil {
			s.logger.Warn("highlighting source", "doc", t.Filename, "error", err)
		}
		return
	}
	_, _ = io.WriteString(w, res.HTML)
}

// highlight writes src as a standalone, syntax-highlighted HTML page.
func highlight(w io.Writer, src string) error {
	lexer := lexers.Get("html")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	formatter := chromahtml.New(
		chromahtml.Standalone(true),
		chromahtml.WithLineNumbers(true),
	)
	return formatter.Format(w, styles.Get(sourceStyle), it)
}
