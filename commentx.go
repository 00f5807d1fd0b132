// Package commentx extracts comments from source text in a fixed set of
// languages. A call either yields every comment of the resource, in order of
// appearance, or an error; zero comments is an empty, non-nil slice.
package commentx

import (
	"context"
	"io"
	"strings"

	"github.com/phyten/commentx/internal/extract"
	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/model"
	"github.com/phyten/commentx/internal/resource"
)

// Comment is one extracted comment. Offset counts runes from the start of the
// decoded text; Text includes the comment markers.
type Comment = model.Comment

var (
	// ErrAcquire reports a resource that could not be opened or read.
	ErrAcquire = extract.ErrAcquire
	// ErrDecode reports content that is not valid in the requested charset.
	ErrDecode = extract.ErrDecode
)

type settings struct {
	charset string
	ctx     context.Context
	lang    string
	tempDir string
	spool   bool
}

// Option adjusts a single extraction call.
type Option func(*settings)

// WithCharset sets the charset of the input. The default is UTF-8.
func WithCharset(name string) Option {
	return func(s *settings) { s.charset = name }
}

// WithContext sets the context used while reading a stream.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}

// WithLanguage skips classification and scans with the named language, for
// example "go", "py" or "c++". "etc" finds no comments at all. Unknown names
// make the extraction fail; "" keeps classification by name.
func WithLanguage(id string) Option {
	return func(s *settings) { s.lang = id }
}

// WithTempDir buffers input under dir and reports the buffered copy's file URI
// as the comment location.
func WithTempDir(dir string) Option {
	return func(s *settings) {
		s.tempDir = dir
		s.spool = true
	}
}

func newSettings(opts []Option) settings {
	s := settings{charset: "UTF-8", ctx: context.Background()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) options() ([]extract.Option, error) {
	if strings.TrimSpace(s.lang) == "" {
		return nil, nil
	}
	id, err := lang.ParseID(s.lang)
	if err != nil {
		return nil, err
	}
	return []extract.Option{extract.WithLanguage(id)}, nil
}

// ExtractComments reads r to the end and returns its comments. resourceName
// selects the language by extension and is echoed in each comment's URI.
func ExtractComments(r io.Reader, resourceName string, opts ...Option) ([]Comment, error) {
	s := newSettings(opts)
	xopts, err := s.options()
	if err != nil {
		return nil, err
	}
	if s.spool {
		xopts = append(xopts, extract.WithSpool(s.tempDir))
	}
	return extract.New(xopts...).FromReader(s.ctx, r, resourceName, s.charset)
}

// ExtractCommentsFromURI opens uri (a local path, file:// or http(s):// URL)
// and returns its comments. An empty resourceName uses the last element of
// uri. Downloaded content is buffered to a temporary file first; with
// WithTempDir the copy is kept and its file URI becomes the location.
func ExtractCommentsFromURI(ctx context.Context, uri, resourceName string, opts ...Option) ([]Comment, error) {
	s := newSettings(append([]Option{WithContext(ctx)}, opts...))
	xopts, err := s.options()
	if err != nil {
		return nil, err
	}
	if s.spool {
		f := resource.NewFetcher(nil)
		f.TempDir = s.tempDir
		f.Keep = true
		xopts = append(xopts, extract.WithAcquirer(f))
	}
	return extract.New(xopts...).FromLocator(s.ctx, uri, resourceName, s.charset)
}

// Languages lists the supported language identifiers, as accepted by
// WithLanguage.
func Languages() []string {
	ids := lang.IDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
