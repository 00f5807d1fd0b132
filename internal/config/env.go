package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/lang"
)

// EnvPrefix は環境変数の接頭辞
const EnvPrefix = "COMMENTX_"

// FromEnv は COMMENTX_* 環境変数を 1 つの設定レイヤーとして読み込む。
// 値の誤りはまとめて errors.Join で返す。
func FromEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	var cfg Config
	var errs []error

	lookup := func(name string) (string, string, bool) {
		key := EnvPrefix + name
		raw := strings.TrimSpace(getenv(key))
		return key, raw, raw != ""
	}
	setString := func(target **string, name string) {
		_, raw, ok := lookup(name)
		if !ok {
			return
		}
		value := raw
		*target = &value
	}
	setList := func(target **[]string, name string) {
		_, raw, ok := lookup(name)
		if !ok {
			return
		}
		list := engineopts.SplitMulti([]string{raw})
		if len(list) == 0 {
			empty := make([]string, 0)
			*target = &empty
			return
		}
		*target = &list
	}
	setBool := func(target **bool, name string) {
		key, raw, ok := lookup(name)
		if !ok {
			return
		}
		v, err := engineopts.ParseBool(raw, key)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*target = &v
	}
	setInt := func(target **int, name string, min, max int) {
		key, raw, ok := lookup(name)
		if !ok {
			return
		}
		v, err := engineopts.ParseIntInRange(raw, key, min, max)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*target = &v
	}

	setString(&cfg.Engine.Charset, "CHARSET")
	setString(&cfg.Engine.Lang, "LANG")
	setList(&cfg.Engine.Includes, "INCLUDE")
	setList(&cfg.Engine.Excludes, "EXCLUDE")
	setBool(&cfg.Engine.ExcludeTypical, "EXCLUDE_TYPICAL")
	setBool(&cfg.Engine.IncludeHidden, "INCLUDE_HIDDEN")
	setBool(&cfg.Engine.NoGitignore, "NO_GITIGNORE")
	setBool(&cfg.Engine.UseGit, "GIT")
	setInt(&cfg.Engine.MaxFileBytes, "MAX_FILE_BYTES", 0, math.MaxInt)
	setBool(&cfg.Engine.SkipEmpty, "SKIP_EMPTY")
	// Allow large values here and rely on NormalizeAndValidate to enforce the
	// canonical upper bound so every input path shares the same error message.
	setInt(&cfg.Engine.Jobs, "JOBS", 0, math.MaxInt)
	setString(&cfg.Engine.Output, "OUTPUT")
	setString(&cfg.Engine.Color, "COLOR")
	setInt(&cfg.Engine.Truncate, "TRUNCATE", 0, math.MaxInt)
	setString(&cfg.Engine.Fields, "FIELDS")

	// COMMENTX_LANGUAGES=".tpl=html,Jenkinsfile=sh"
	if key, raw, ok := lookup("LANGUAGES"); ok {
		langs := make(map[string]string)
		for _, pair := range engineopts.SplitMulti([]string{raw}) {
			name, value, found := strings.Cut(pair, "=")
			name = strings.ToLower(strings.TrimSpace(name))
			if !found || name == "" {
				errs = append(errs, fmt.Errorf("%s: expected key=lang, got %q", key, pair))
				continue
			}
			id, err := lang.ParseID(value)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			langs[name] = id.String()
		}
		if len(langs) > 0 {
			cfg.Languages = langs
		}
	}

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}
