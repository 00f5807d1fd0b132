// Package opts は CLI・Web・設定ファイルが共有する抽出オプションの既定値と検証を持つ。
package opts

import (
	"fmt"
	"math"
	"net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/phyten/commentx/internal/charset"
	"github.com/phyten/commentx/internal/engine"
	"github.com/phyten/commentx/internal/lang"
)

const maxJobs = 64

var boolWords = map[string]bool{
	"1": true, "true": true, "yes": true, "on": true,
	"0": false, "false": false, "no": false, "off": false,
}

// Defaults は CLI と Web の出発点になるオプション。targets が空なら "." を対象にする。
func Defaults(targets ...string) engine.Options {
	if len(targets) == 0 {
		targets = []string{"."}
	}
	return engine.Options{
		Targets: append([]string(nil), targets...),
		Charset: charset.Default,
		Jobs:    min(max(runtime.NumCPU(), 1), maxJobs),
	}
}

// ApplyWebQueryToOptions overlays query parameters on def. Repeated list
// parameters accumulate; for scalars the last non-blank value wins. Values are
// only parsed here, NormalizeAndValidate still has to run.
func ApplyWebQueryToOptions(def engine.Options, q url.Values) (engine.Options, error) {
	out := def
	for key, dst := range map[string]*[]string{"target": &out.Targets, "include": &out.Includes, "exclude": &out.Excludes} {
		if len(q[key]) > 0 {
			*dst = SplitMulti(q[key])
		}
	}
	for key, dst := range map[string]*string{"charset": &out.Charset, "lang": &out.Lang} {
		if v, ok := lastValue(q[key]); ok {
			*dst = v
		}
	}
	for key, dst := range map[string]*bool{
		"exclude_typical": &out.ExcludeTypical,
		"include_hidden":  &out.IncludeHidden,
		"no_gitignore":    &out.NoGitignore,
		"git":             &out.UseGit,
		"skip_empty":      &out.SkipEmpty,
		"progress":        &out.Progress,
	} {
		v, ok := lastValue(q[key])
		if !ok {
			continue
		}
		b, err := ParseBool(v, key)
		if err != nil {
			return out, err
		}
		*dst = b
	}
	if v, ok := lastValue(q["jobs"]); ok {
		n, err := ParseIntInRange(v, "jobs", 1, maxJobs)
		if err != nil {
			return out, err
		}
		out.Jobs = n
	}
	if v, ok := lastValue(q["max_file_bytes"]); ok {
		n, err := ParseIntInRange(v, "max_file_bytes", 0, math.MaxInt)
		if err != nil {
			return out, err
		}
		out.MaxFileBytes = int64(n)
	}
	return out, nil
}

// NormalizeAndValidate trims and canonicalizes o in place (language names
// become IDs, an empty charset becomes UTF-8) and checks ranges and globs.
func NormalizeAndValidate(o *engine.Options) error {
	o.Targets = compact(o.Targets)
	if len(o.Targets) == 0 {
		o.Targets = []string{"."}
	}
	if o.Charset = strings.TrimSpace(o.Charset); o.Charset == "" {
		o.Charset = charset.Default
	}
	if !charset.Supported(o.Charset) {
		return fmt.Errorf("invalid --charset: %s", o.Charset)
	}
	if o.Lang = strings.TrimSpace(o.Lang); o.Lang != "" {
		id, err := lang.ParseID(o.Lang)
		if err != nil {
			return fmt.Errorf("invalid --lang: %s", o.Lang)
		}
		o.Lang = id.String()
	}
	if o.Jobs < 1 || o.Jobs > maxJobs {
		return rangeError("jobs", 1, maxJobs)
	}
	if o.MaxFileBytes < 0 {
		return rangeError("max_file_bytes", 0, math.MaxInt)
	}
	o.Includes = compact(o.Includes)
	o.Excludes = compact(o.Excludes)
	for _, globs := range [][]string{o.Includes, o.Excludes} {
		for _, g := range globs {
			// ":" で始まるものは git の pathspec magic としてそのまま渡す
			if !strings.HasPrefix(g, ":") && !doublestar.ValidatePattern(filepath.ToSlash(g)) {
				return fmt.Errorf("invalid glob: %s", g)
			}
		}
	}
	return nil
}

// ParseBool accepts 1/0, true/false, yes/no and on/off in any case.
func ParseBool(raw, key string) (bool, error) {
	if v, ok := boolWords[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return v, nil
	}
	return false, fmt.Errorf("invalid value for %s: %q (want true/false, yes/no, on/off or 1/0)", key, raw)
}

// ParseIntInRange parses raw and checks lo <= n <= hi. Pass math.MaxInt as hi
// for "no upper bound".
func ParseIntInRange(raw, key string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, raw)
	}
	if n < lo || n > hi {
		return 0, rangeError(key, lo, hi)
	}
	return n, nil
}

func rangeError(key string, lo, hi int) error {
	if hi == math.MaxInt {
		return fmt.Errorf("%s must be >= %d", key, lo)
	}
	return fmt.Errorf("%s must be between %d and %d", key, lo, hi)
}

// NormalizeOutput は出力形式名を正規化する（md → markdown, jsonl → ndjson）。
func NormalizeOutput(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "table", "tsv", "json", "ndjson", "csv", "markdown", "sqlite":
		return v, nil
	case "md":
		return "markdown", nil
	case "jsonl":
		return "ndjson", nil
	}
	return "", fmt.Errorf("invalid --output: %s", value)
}

// SplitMulti flattens repeated values that may themselves be comma-separated,
// dropping blanks.
func SplitMulti(vals []string) []string {
	var out []string
	for _, v := range vals {
		out = append(out, compact(strings.Split(v, ","))...)
	}
	return out
}

func lastValue(vals []string) (string, bool) {
	for i := len(vals) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(vals[i]); v != "" {
			return v, true
		}
	}
	return "", false
}

// compact trims every value and drops the blank ones, reusing values' array.
func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
