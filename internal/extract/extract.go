// Package extract ties classification, decoding, scanning and resource
// acquisition together.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/phyten/commentx/internal/charset"
	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/model"
	"github.com/phyten/commentx/internal/resource"
	"github.com/phyten/commentx/internal/scan"
)

var (
	// ErrAcquire marks a resource that could not be opened or read.
	ErrAcquire = errors.New("acquire failed")
	// ErrDecode marks bytes that are not valid in the declared charset.
	ErrDecode = errors.New("decode failed")
)

// Extractor is safe for concurrent use once built.
type Extractor struct {
	acquirer   resource.Acquirer
	classifier *lang.Classifier
	forced     lang.ID
	logger     *slog.Logger
	spool      string
	spoolOn    bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAcquirer replaces the default file/HTTP fetcher.
func WithAcquirer(a resource.Acquirer) Option {
	return func(x *Extractor) {
		if a != nil {
			x.acquirer = a
		}
	}
}

// WithClassifier installs name→language overrides.
func WithClassifier(c *lang.Classifier) Option {
	return func(x *Extractor) { x.classifier = c }
}

// WithLanguage forces one language for every resource. ETC forces the grammar
// without comment markers; "" restores classification by name.
func WithLanguage(id lang.ID) Option {
	return func(x *Extractor) { x.forced = id }
}

// WithLogger sets the structured logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithSpool copies stream input to a temporary file under dir and reports its
// file URI as the comment location. dir "" uses os.TempDir().
func WithSpool(dir string) Option {
	return func(x *Extractor) {
		x.spool = dir
		x.spoolOn = true
	}
}

// New builds an Extractor. Without WithAcquirer a resource.Fetcher sharing the
// extractor's logger is used.
func New(opts ...Option) *Extractor {
	x := &Extractor{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(x)
	}
	if x.acquirer == nil {
		x.acquirer = resource.NewFetcher(x.logger)
	}
	return x
}

// With returns a copy of x with opts applied on top of its settings.
func (x *Extractor) With(opts ...Option) *Extractor {
	cp := *x
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Language returns the language the extractor would use for name.
func (x *Extractor) Language(name string) lang.ID {
	if x.forced != "" {
		return x.forced
	}
	return x.classifier.Classify(name)
}

// FromText scans already decoded text and stamps uri on every comment.
func (x *Extractor) FromText(text, name, uri string) []model.Comment {
	id := x.Language(name)
	comments := scan.Scan(text, lang.GrammarFor(id))
	for i := range comments {
		comments[i].URI = uri
	}
	return comments
}

// FromReader reads r to the end and extracts its comments. name drives
// classification; the location is a stream placeholder unless spooling is
// enabled.
func (x *Extractor) FromReader(ctx context.Context, r io.Reader, name, cs string) ([]model.Comment, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s: nil reader", ErrAcquire, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAcquire, name, err)
	}
	data, err := io.ReadAll(contextReader{ctx: ctx, r: r})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAcquire, name, err)
	}
	uri := StreamURI(name)
	if x.spoolOn {
		p, _, err := resource.Spool(x.spool, name, bytes.NewReader(data), 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAcquire, name, err)
		}
		uri = resource.FileURI(p)
	}
	return x.decodeAndScan(data, name, uri, cs)
}

// FromLocator acquires locator and extracts its comments. An empty name falls
// back to the locator's base name.
func (x *Extractor) FromLocator(ctx context.Context, locator, name, cs string) ([]model.Comment, error) {
	res, err := x.acquirer.Acquire(ctx, locator)
	if err != nil {
		x.logger.Debug("acquire failed", "locator", locator, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrAcquire, locator, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(contextReader{ctx: ctx, r: res.Body})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAcquire, locator, err)
	}
	if name == "" {
		name = res.Name
	}
	if name == "" {
		name = resource.BaseName(locator)
	}
	return x.decodeAndScan(data, name, res.Location, cs)
}

func (x *Extractor) decodeAndScan(data []byte, name, uri, cs string) ([]model.Comment, error) {
	text, err := charset.Decode(data, cs)
	if err != nil {
		x.logger.Debug("decode failed", "name", name, "charset", cs, "error", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, name, err)
	}
	comments := x.FromText(text, name, uri)
	x.logger.Debug("extracted", "name", name, "lang", x.Language(name), "comments", len(comments), "uri", uri)
	return comments, nil
}

// StreamURI is the placeholder location reported for stream input.
func StreamURI(name string) string {
	return "stream:" + url.PathEscape(name)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
