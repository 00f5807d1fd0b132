package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/phyten/commentx/internal/engine"
	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/extract"
	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/progress"
	"github.com/phyten/commentx/internal/resource"
)

// DefaultMaxBodyBytes は POST /api/extract の本文の上限
const DefaultMaxBodyBytes = 8 << 20

// API は /api/extract 系のハンドラをまとめる。
// ローカルのターゲットは Root からの相対パスとして解釈し、Root の外は拒否する。
// file:// は常に拒否し、http(s) は AllowRemote のときだけ受け付ける。
type API struct {
	Extractor    *extract.Extractor
	Defaults     engine.Options
	Root         string
	MaxBodyBytes int64
	AllowRemote  bool
	Logger       *slog.Logger
}

// Register attaches the UI and the API endpoints to mux.
func (a *API) Register(mux *http.ServeMux) {
	Register(mux)
	mux.HandleFunc("/api/extract", a.ExtractHandler())
	mux.HandleFunc("/api/extract/stream", a.StreamHandler())
	mux.HandleFunc("/api/languages", languagesHandler)
}

type errorBody struct {
	Error string `json:"error"`
}

// ExtractHandler serves GET (batch over targets) and POST (body is source text).
func (a *API) ExtractHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			opts, err := a.optionsFromQuery(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			res, err := engine.Run(r.Context(), a.extractor(), opts)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			a.relativize(res)
			writeJSON(w, http.StatusOK, res)
		case http.MethodPost:
			a.extractBody(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		}
	}
}

func (a *API) extractBody(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	opts := a.Defaults
	if raw := strings.TrimSpace(q.Get("lang")); raw != "" {
		opts.Lang = raw
	}
	if raw := strings.TrimSpace(q.Get("charset")); raw != "" {
		opts.Charset = raw
	}
	if raw := q.Get("skip_empty"); raw != "" {
		v, err := engineopts.ParseBool(raw, "skip_empty")
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		opts.SkipEmpty = v
	}

	limit := a.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, limit)
	res, err := engine.RunReader(r.Context(), a.extractor(), opts, body, name)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, extract.ErrDecode):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			writeError(w, http.StatusBadRequest, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StreamHandler runs a batch like GET /api/extract and reports progress as
// server-sent events: "progress" events carry snapshots, then one "result"
// or "error" event ends the stream.
func (a *API) StreamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
			return
		}
		opts, err := a.optionsFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)

		var mu sync.Mutex
		send := func(event string, v any) {
			data, err := json.Marshal(v)
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
			flusher.Flush()
		}

		opts.Progress = true
		opts.ProgressObserver = progress.ObserverFunc(func(s progress.Snapshot) { send("progress", s) })
		res, err := engine.Run(r.Context(), a.extractor(), opts)
		if err != nil {
			send("error", errorBody{Error: err.Error()})
			return
		}
		a.relativize(res)
		send("result", res)
	}
}

func languagesHandler(w http.ResponseWriter, r *http.Request) {
	type langInfo struct {
		ID         string   `json:"id"`
		Extensions []string `json:"extensions"`
	}
	ids := lang.IDs()
	out := make([]langInfo, 0, len(ids))
	for _, id := range ids {
		exts := lang.Extensions(id)
		if exts == nil {
			exts = []string{}
		}
		out = append(out, langInfo{ID: id.String(), Extensions: exts})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) optionsFromQuery(r *http.Request) (engine.Options, error) {
	opts, err := engineopts.ApplyWebQueryToOptions(a.Defaults, r.URL.Query())
	if err != nil {
		return opts, err
	}
	targets := make([]string, 0, len(opts.Targets))
	for _, t := range opts.Targets {
		resolved, err := a.resolveTarget(t)
		if err != nil {
			return opts, err
		}
		targets = append(targets, resolved)
	}
	opts.Targets = targets
	if err := engineopts.NormalizeAndValidate(&opts); err != nil {
		return opts, err
	}
	opts.Progress = false
	opts.ProgressObserver = nil
	return opts, nil
}

func (a *API) root() string {
	if strings.TrimSpace(a.Root) == "" {
		return "."
	}
	return a.Root
}

// resolveTarget joins a relative target onto Root.
func (a *API) resolveTarget(t string) (string, error) {
	t = strings.TrimSpace(t)
	switch scheme := resource.Scheme(t); scheme {
	case "":
	case "http", "https":
		if !a.AllowRemote {
			return "", fmt.Errorf("remote targets are disabled: %s", t)
		}
		return t, nil
	case "file":
		return "", fmt.Errorf("file URIs are not accepted, use a path under root: %s", t)
	default:
		return "", fmt.Errorf("%w: %s", resource.ErrUnsupportedScheme, scheme)
	}
	slashed := filepath.ToSlash(t)
	clean := path.Clean(slashed)
	if filepath.IsAbs(t) || strings.HasPrefix(slashed, "/") || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("target outside root: %s", t)
	}
	return filepath.Join(a.root(), filepath.FromSlash(clean)), nil
}

// relativize rewrites paths, URIs and error messages so responses never
// reveal Root itself.
func (a *API) relativize(res *engine.Result) {
	rw := newRootRewriter(a.root())
	for i := range res.Items {
		res.Items[i].File = rw.path(res.Items[i].File)
		res.Items[i].URI = rw.uri(res.Items[i].URI)
	}
	for i := range res.Errors {
		res.Errors[i].File = rw.path(res.Errors[i].File)
		res.Errors[i].Message = rw.text(res.Errors[i].Message)
	}
}

type rootRewriter struct {
	native  string
	slashed string
	rootURI string
}

func newRootRewriter(root string) rootRewriter {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	root = filepath.Clean(root)
	return rootRewriter{native: root, slashed: filepath.ToSlash(root), rootURI: resource.FileURI(root)}
}

func (rw rootRewriter) path(p string) string {
	if resource.IsURL(p) {
		return p
	}
	slashed := filepath.ToSlash(p)
	if rel, ok := strings.CutPrefix(slashed, rw.slashed+"/"); ok {
		return rel
	}
	if slashed == rw.slashed {
		return "."
	}
	return p
}

// uri は Root 配下の file:// URI を Root からの相対パスにする
func (rw rootRewriter) uri(u string) string {
	if rel, ok := strings.CutPrefix(u, rw.rootURI+"/"); ok {
		if unescaped, err := url.PathUnescape(rel); err == nil {
			return unescaped
		}
		return rel
	}
	if u == rw.rootURI {
		return "."
	}
	return u
}

func (rw rootRewriter) text(s string) string {
	s = strings.ReplaceAll(s, rw.rootURI+"/", "")
	s = strings.ReplaceAll(s, rw.native+string(filepath.Separator), "")
	s = strings.ReplaceAll(s, rw.slashed+"/", "")
	s = strings.ReplaceAll(s, rw.native, ".")
	return strings.ReplaceAll(s, rw.slashed, ".")
}

func (a *API) extractor() *extract.Extractor {
	if a.Extractor == nil {
		return extract.New(extract.WithLogger(a.Logger))
	}
	return a.Extractor
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}
