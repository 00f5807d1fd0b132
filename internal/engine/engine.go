package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"github.com/phyten/commentx/internal/execx"
	"github.com/phyten/commentx/internal/extract"
	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/model"
	"github.com/phyten/commentx/internal/progress"
	"github.com/phyten/commentx/internal/resource"
)

const maxJobs = 64

// fileRef は抽出対象 1 件
type fileRef struct {
	display string
	locator string
	name    string
	local   bool
}

// Run は Targets を列挙し、各ファイルのコメントを並列に抽出します。
//
// 結果はターゲット順、ターゲット内はパス順、ファイル内はオフセット順に並びます。
// ファイル単位の失敗は Result.Errors に集約され、実行自体は継続します。
// ctx のキャンセルと不正なオプションだけがエラーとして返ります。
func Run(ctx context.Context, x *extract.Extractor, opts Options) (*Result, error) {
	start := time.Now()
	if x == nil {
		x = extract.New()
	}
	if strings.TrimSpace(opts.Lang) != "" {
		id, err := lang.ParseID(opts.Lang)
		if err != nil {
			return nil, err
		}
		x = x.With(extract.WithLanguage(id))
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.NumCPU()
	}
	if opts.Jobs > maxJobs {
		opts.Jobs = maxJobs
	}
	if opts.Runner == nil {
		opts.Runner = execx.DefaultRunner()
	}
	if len(opts.Targets) == 0 {
		opts.Targets = []string{"."}
	}
	filter, err := newPathFilter(opts.Includes, opts.Excludes, opts.ExcludeTypical)
	if err != nil {
		return nil, err
	}

	observer := progressObserver(opts)
	est := progress.NewEstimator(-1, progress.Config{})
	observer.Publish(est.Snapshot())

	files, errs, err := listTargets(ctx, opts, filter)
	if err != nil {
		return nil, err
	}

	est.SetTotal(len(files))
	if snap, changed := est.Stage(progress.StageExtract); changed {
		observer.Publish(snap)
	}

	perFile := make([][]Item, len(files))
	fileErrs := make([]*ItemError, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Jobs)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			items, itemErr := extractOne(gctx, x, opts, f)
			perFile[i], fileErrs[i] = items, itemErr
			step := progress.Step{Files: 1, Comments: len(items)}
			if itemErr != nil {
				step.Failed = 1
			}
			if snap, notify := est.Advance(step); notify {
				observer.Publish(snap)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	observer.Done(est.Complete())

	res := &Result{Items: []Item{}, Languages: map[string]int{}}
	for i, items := range perFile {
		if fileErrs[i] != nil {
			errs = append(errs, *fileErrs[i])
			continue
		}
		if items == nil {
			continue
		}
		res.Files++
		res.Languages[string(x.Language(files[i].nameForLang()))]++
		res.Items = append(res.Items, items...)
	}
	res.Total = len(res.Items)
	res.Errors = errs
	res.ErrorCount = len(errs)
	res.ElapsedMS = msSince(start)
	return res, nil
}

// RunReader extracts comments from a single stream. name labels every item
// and drives classification. Unlike Run, acquisition and decode failures are
// returned as errors (wrapping extract.ErrAcquire / extract.ErrDecode).
func RunReader(ctx context.Context, x *extract.Extractor, opts Options, r io.Reader, name string) (*Result, error) {
	start := time.Now()
	if x == nil {
		x = extract.New()
	}
	if strings.TrimSpace(opts.Lang) != "" {
		id, err := lang.ParseID(opts.Lang)
		if err != nil {
			return nil, err
		}
		x = x.With(extract.WithLanguage(id))
	}
	comments, err := x.FromReader(ctx, r, name, opts.Charset)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Items:     make([]Item, 0, len(comments)),
		Files:     1,
		Languages: map[string]int{string(x.Language(name)): 1},
	}
	for _, c := range comments {
		if opts.SkipEmpty && emptyBody(c) {
			continue
		}
		res.Items = append(res.Items, Item{Comment: c, File: name})
	}
	res.Total = len(res.Items)
	res.ElapsedMS = msSince(start)
	return res, nil
}

// extractOne returns nil items for files skipped as binary.
func extractOne(ctx context.Context, x *extract.Extractor, opts Options, f fileRef) ([]Item, *ItemError) {
	if f.local {
		binary, err := isBinaryFile(f.locator)
		if err != nil {
			return nil, newItemError(f.display, StageAcquire, err)
		}
		if binary {
			return nil, nil
		}
	}
	comments, err := x.FromLocator(ctx, f.locator, f.name, opts.Charset)
	if err != nil {
		stage := StageAcquire
		if errors.Is(err, extract.ErrDecode) {
			stage = StageDecode
		}
		return nil, newItemError(f.display, stage, err)
	}
	items := make([]Item, 0, len(comments))
	for _, c := range comments {
		if opts.SkipEmpty && emptyBody(c) {
			continue
		}
		items = append(items, Item{Comment: c, File: f.display})
	}
	return items, nil
}

func (f fileRef) nameForLang() string {
	if f.name != "" {
		return f.name
	}
	return resource.BaseName(f.locator)
}

func newItemError(file, stage string, err error) *ItemError {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = "unknown error"
	}
	return &ItemError{File: file, Stage: stage, Message: msg}
}

func progressObserver(opts Options) progress.Observer {
	if !opts.Progress {
		return progress.NoopObserver{}
	}
	if opts.ProgressObserver != nil {
		return opts.ProgressObserver
	}
	return progress.NewAutoObserver(os.Stderr)
}

// listTargets expands every target into files. Missing targets become list
// errors; only cancellation aborts.
func listTargets(ctx context.Context, opts Options, filter *pathFilter) ([]fileRef, []ItemError, error) {
	var refs []fileRef
	var errs []ItemError
	seen := make(map[string]bool)
	add := func(r fileRef) {
		if seen[r.locator] {
			return
		}
		seen[r.locator] = true
		refs = append(refs, r)
	}

	for _, raw := range opts.Targets {
		target := strings.TrimSpace(raw)
		if target == "" {
			continue
		}
		if resource.IsURL(target) {
			add(fileRef{display: target, locator: target})
			continue
		}
		info, err := os.Stat(target)
		if err != nil {
			errs = append(errs, *newItemError(filepath.ToSlash(target), StageList, err))
			continue
		}
		if !info.IsDir() {
			add(fileRef{display: filepath.ToSlash(target), locator: target, name: filepath.Base(target), local: true})
			continue
		}

		var rels []string
		if opts.UseGit {
			rels, err = gitListFiles(ctx, opts, target, filter)
			if err != nil && execx.IsNotFound(err) {
				rels, err = walkDir(ctx, opts, target, filter)
			}
		} else {
			rels, err = walkDir(ctx, opts, target, filter)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			errs = append(errs, *newItemError(filepath.ToSlash(target), StageList, err))
			continue
		}
		sort.Strings(rels)
		for _, rel := range rels {
			add(fileRef{
				display: displayPath(target, rel),
				locator: filepath.Join(target, filepath.FromSlash(rel)),
				name:    path.Base(rel),
				local:   true,
			})
		}
	}
	return refs, errs, nil
}

func displayPath(root, rel string) string {
	r := filepath.ToSlash(filepath.Clean(root))
	if r == "." {
		return rel
	}
	return path.Join(r, rel)
}

// walkDir lists files under root as slash paths relative to root.
func walkDir(ctx context.Context, opts Options, root string, filter *pathFilter) ([]string, error) {
	var ignore *gitignore.GitIgnore
	if !opts.NoGitignore {
		gitignorePath := filepath.Join(root, ".gitignore")
		if _, err := os.Stat(gitignorePath); err == nil {
			ignore, _ = gitignore.CompileIgnoreFile(gitignorePath)
		}
	}

	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" || (!opts.IncludeHidden && isHidden(d.Name())) {
				return filepath.SkipDir
			}
			if ignore != nil && ignore.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if filter.PruneDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !opts.IncludeHidden && isHidden(d.Name()) {
			return nil
		}
		if ignore != nil && ignore.MatchesPath(rel) {
			return nil
		}
		if !filter.Allow(rel) {
			return nil
		}
		if opts.MaxFileBytes > 0 {
			info, err := d.Info()
			if err != nil || info.Size() > opts.MaxFileBytes {
				return nil
			}
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

// gitListFiles lists tracked and untracked-but-not-ignored files under dir.
func gitListFiles(ctx context.Context, opts Options, dir string, filter *pathFilter) ([]string, error) {
	args := buildLsFilesArgs(opts.Includes, opts.Excludes, opts.ExcludeTypical)
	stdout, err := execx.Output(ctx, opts.Runner, dir, "git ls-files", "git", args...)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, raw := range bytes.Split(stdout, []byte{0}) {
		rel := filepath.ToSlash(string(raw))
		if rel == "" {
			continue
		}
		if !opts.IncludeHidden && hasHiddenSegment(rel) {
			continue
		}
		if !filter.Allow(rel) {
			continue
		}
		full := filepath.Join(dir, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if opts.MaxFileBytes > 0 && info.Size() > opts.MaxFileBytes {
			continue
		}
		out = append(out, rel)
	}
	return out, nil
}

func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if isHidden(seg) {
			return true
		}
	}
	return false
}

// isBinaryFile checks the first 8KB for NUL bytes.
func isBinaryFile(p string) (bool, error) {
	fh, err := os.Open(p)
	if err != nil {
		return false, err
	}
	defer fh.Close()
	buf := make([]byte, 8192)
	n, err := io.ReadFull(fh, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// emptyBody reports whether c holds nothing but its markers, whitespace and
// rule characters.
func emptyBody(c model.Comment) bool {
	g := lang.GrammarFor(lang.ID(c.Lang))
	body := c.Text
	switch c.Kind {
	case model.KindLine:
		body = body[g.LineMarkerLen(body):]
	case model.KindBlock:
		for _, b := range g.Blocks {
			if strings.HasPrefix(body, b.Open) {
				body = strings.TrimSuffix(body[len(b.Open):], b.Close)
				break
			}
		}
	}
	return strings.Trim(body, " \t\r\n*-=#/") == ""
}

func msSince(t time.Time) int64 { return time.Since(t).Milliseconds() }
