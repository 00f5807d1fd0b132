// Package resource acquires source content from local paths, file URIs and
// HTTP(S) URLs.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrTooLarge          = errors.New("resource too large")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrStatus            = errors.New("unexpected HTTP status")
)

// Resource is an opened resource. Location is durable: a file URI for local
// content and spooled copies, or the source URL when the copy is discarded.
type Resource struct {
	Body     io.ReadCloser
	Location string
	Name     string
	Size     int64
}

// Acquirer opens a resource for reading.
type Acquirer interface {
	Acquire(ctx context.Context, locator string) (*Resource, error)
}

// Fetcher is the default Acquirer.
type Fetcher struct {
	HTTP *retryablehttp.Client
	// TempDir receives downloaded copies; "" means os.TempDir().
	TempDir string
	// Keep leaves downloaded copies on disk and reports them as Location.
	Keep bool
	// MaxBytes caps the resource size; 0 disables the cap.
	MaxBytes int64
	Logger   *slog.Logger
}

// NewFetcher returns a Fetcher whose HTTP client retries transient failures.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = logger
	return &Fetcher{HTTP: client, Logger: logger}
}

// Acquire implements Acquirer.
func (f *Fetcher) Acquire(ctx context.Context, locator string) (*Resource, error) {
	loc := strings.TrimSpace(locator)
	if loc == "" {
		return nil, fmt.Errorf("%w: empty locator", ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch scheme := schemeOf(loc); scheme {
	case "":
		return f.openFile(loc)
	case "file":
		u, err := url.Parse(loc)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", loc, err)
		}
		return f.openFile(filepath.FromSlash(u.Path))
	case "http", "https":
		return f.fetch(ctx, loc)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
}

func schemeOf(loc string) string {
	i := strings.Index(loc, "://")
	if i <= 1 {
		// "C://" style drive letters and relative paths have no scheme
		return ""
	}
	return strings.ToLower(loc[:i])
}

func (f *Fetcher) openFile(p string) (*Resource, error) {
	fh, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, err
	}
	st, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	if st.IsDir() {
		fh.Close()
		return nil, fmt.Errorf("%s: is a directory", p)
	}
	if f.MaxBytes > 0 && st.Size() > f.MaxBytes {
		fh.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, p, st.Size(), f.MaxBytes)
	}
	return &Resource{Body: fh, Location: FileURI(p), Name: filepath.Base(p), Size: st.Size()}, nil
}

func (f *Fetcher) fetch(ctx context.Context, raw string) (*Resource, error) {
	client := f.HTTP
	if client == nil {
		client = NewFetcher(f.Logger).HTTP
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", raw, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, raw, res.Status)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: %s", ErrStatus, raw, res.Status)
	}
	if f.MaxBytes > 0 && res.ContentLength > f.MaxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, raw, res.ContentLength, f.MaxBytes)
	}

	name := urlBase(raw)
	spooled, n, err := Spool(f.TempDir, name, res.Body, f.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("spool %s: %w", raw, err)
	}
	f.logger().Debug("fetched resource", "url", raw, "status", res.StatusCode, "bytes", n, "spool", spooled)

	fh, err := os.Open(spooled)
	if err != nil {
		os.Remove(spooled)
		return nil, err
	}
	r := &Resource{Name: name, Size: n}
	if f.Keep {
		r.Body = fh
		r.Location = FileURI(spooled)
	} else {
		r.Body = &removeOnClose{File: fh}
		r.Location = raw
	}
	return r, nil
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.Logger
}

type removeOnClose struct {
	*os.File
}

func (r *removeOnClose) Close() error {
	err := r.File.Close()
	if rmErr := os.Remove(r.File.Name()); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

// FileURI returns the file:// URI of p, made absolute when possible.
func FileURI(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	slashed := filepath.ToSlash(p)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return (&url.URL{Scheme: "file", Path: slashed}).String()
}

// IsURL reports whether locator names a remote or file URI rather than a path.
func IsURL(locator string) bool {
	return Scheme(locator) != ""
}

// Scheme returns the lower-cased URI scheme of locator, or "" for paths.
func Scheme(locator string) string {
	return schemeOf(strings.TrimSpace(locator))
}

// BaseName returns the last path element of a path or URL.
func BaseName(locator string) string {
	loc := strings.TrimSpace(locator)
	if IsURL(loc) {
		return urlBase(loc)
	}
	return filepath.Base(loc)
}

func urlBase(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "index"
	}
	return path.Base(u.Path)
}
