package engine

import (
	"path/filepath"
	"strings"
)

var typicalExcludeGlobs = []string{
	"**/vendor/**",
	"**/node_modules/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/*.min.*",
}

// buildLsFilesPathspecs builds the list to append after "--" for `git ls-files`.
// Includes and excludes are doublestar globs; explicit magic pathspecs
// (":(...)" or ":!") pass through unchanged.
func buildLsFilesPathspecs(includes, excludes []string, typical bool) []string {
	out := make([]string, 0, len(includes)+len(excludes)+len(typicalExcludeGlobs)+1)
	for _, raw := range includes {
		trimmed := filepath.ToSlash(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			out = append(out, trimmed)
			continue
		}
		out = append(out, ":(glob)"+trimmed)
	}
	if len(out) == 0 {
		out = append(out, ".")
	}

	if typical {
		for _, g := range typicalExcludeGlobs {
			out = append(out, ":(glob,exclude)"+g)
		}
	}

	for _, raw := range excludes {
		trimmed := filepath.ToSlash(strings.TrimSpace(raw))
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":!") || strings.HasPrefix(trimmed, ":(exclude)") || strings.HasPrefix(trimmed, ":(glob,exclude)") {
			out = append(out, trimmed)
			continue
		}
		out = append(out, ":(glob,exclude)"+trimmed)
	}
	return out
}

func buildLsFilesArgs(includes, excludes []string, typical bool) []string {
	args := []string{"-c", "core.quotePath=false", "ls-files", "-z", "--cached", "--others", "--exclude-standard", "--"}
	return append(args, buildLsFilesPathspecs(includes, excludes, typical)...)
}
