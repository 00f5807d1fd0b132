package engine

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathFilter applies include/exclude globs to slash-separated relative paths.
// A pattern without "/" also matches the base name at any depth.
type pathFilter struct {
	includes []string
	excludes []string
}

var magicPrefixes = []string{":(glob,exclude)", ":(exclude)", ":(glob)", ":!"}

func newPathFilter(includes, excludes []string, typical bool) (*pathFilter, error) {
	f := &pathFilter{}
	var err error
	if f.includes, err = cleanGlobs(includes); err != nil {
		return nil, err
	}
	ex := excludes
	if typical {
		ex = append(append([]string(nil), typicalExcludeGlobs...), excludes...)
	}
	if f.excludes, err = cleanGlobs(ex); err != nil {
		return nil, err
	}
	return f, nil
}

func cleanGlobs(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		p := strings.TrimSpace(strings.ReplaceAll(r, "\\", "/"))
		for _, prefix := range magicPrefixes {
			if strings.HasPrefix(p, prefix) {
				p = strings.TrimPrefix(p, prefix)
				break
			}
		}
		p = strings.TrimPrefix(p, "./")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid glob: %q", r)
		}
		out = append(out, p)
	}
	return out, nil
}

// Allow reports whether rel passes the filter.
func (f *pathFilter) Allow(rel string) bool {
	if f == nil {
		return true
	}
	for _, p := range f.excludes {
		if globMatch(p, rel) {
			return false
		}
	}
	if len(f.includes) == 0 {
		return true
	}
	for _, p := range f.includes {
		if globMatch(p, rel) {
			return true
		}
	}
	return false
}

// PruneDir reports whether every path below the directory rel is excluded.
func (f *pathFilter) PruneDir(rel string) bool {
	if f == nil {
		return false
	}
	for _, p := range f.excludes {
		if strings.HasSuffix(p, "/**") && globMatch(p, rel+"/x") && globMatch(strings.TrimSuffix(p, "/**"), rel) {
			return true
		}
	}
	return false
}

func globMatch(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, path.Base(rel))
		return ok
	}
	return false
}
