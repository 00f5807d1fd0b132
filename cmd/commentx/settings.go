package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/phyten/commentx/internal/charset"
	"github.com/phyten/commentx/internal/config"
	"github.com/phyten/commentx/internal/engine"
	"github.com/phyten/commentx/internal/lang"
)

// engineFlags は extract と serve に共通の抽出オプション
type engineFlags struct {
	charset        string
	lang           string
	includes       []string
	excludes       []string
	excludeTypical bool
	includeHidden  bool
	noGitignore    bool
	git            bool
	maxFileBytes   int
	skipEmpty      bool
	jobs           int
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.charset, "charset", charset.Default, "input charset (UTF-8, Shift_JIS, EUC-JP, windows-1252, ...)")
	fl.StringVarP(&f.lang, "lang", "l", "", "treat every file as this language (JAVA, PY, C, CPP, RUBY, GO, JS, HTML, ...)")
	fl.StringSliceVarP(&f.includes, "include", "i", nil, "only files matching glob (repeatable; comma-separated)")
	fl.StringSliceVarP(&f.excludes, "exclude", "x", nil, "skip files matching glob (repeatable; comma-separated)")
	fl.BoolVar(&f.excludeTypical, "exclude-typical", false, "skip vendored, generated and minified files")
	fl.BoolVar(&f.includeHidden, "include-hidden", false, "descend into dot files and directories")
	fl.BoolVar(&f.noGitignore, "no-gitignore", false, "do not honor .gitignore when walking directories")
	fl.BoolVar(&f.git, "git", false, "list directory files with git ls-files")
	fl.IntVar(&f.maxFileBytes, "max-file-bytes", 0, "skip files larger than N bytes (0=unlimited)")
	fl.BoolVar(&f.skipEmpty, "skip-empty", false, "drop comments with no text besides markers")
	fl.IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "max parallel workers")
}

// layer はコマンドラインで明示されたフラグだけを設定レイヤーにする。
func (f *engineFlags) layer(cmd *cobra.Command, dst *config.EngineConfig) {
	changed := cmd.Flags().Changed
	if changed("charset") {
		dst.Charset = &f.charset
	}
	if changed("lang") {
		dst.Lang = &f.lang
	}
	if changed("include") {
		dst.Includes = &f.includes
	}
	if changed("exclude") {
		dst.Excludes = &f.excludes
	}
	if changed("exclude-typical") {
		dst.ExcludeTypical = &f.excludeTypical
	}
	if changed("include-hidden") {
		dst.IncludeHidden = &f.includeHidden
	}
	if changed("no-gitignore") {
		dst.NoGitignore = &f.noGitignore
	}
	if changed("git") {
		dst.UseGit = &f.git
	}
	if changed("max-file-bytes") {
		dst.MaxFileBytes = &f.maxFileBytes
	}
	if changed("skip-empty") {
		dst.SkipEmpty = &f.skipEmpty
	}
	if changed("jobs") {
		dst.Jobs = &f.jobs
	}
}

// loadSettings merges base, the config file, COMMENTX_* variables and the flag
// layer, in that order.
func (a *app) loadSettings(base engine.Options, flags config.EngineConfig, logger *slog.Logger) (config.EngineSettings, *lang.Classifier, error) {
	env := a.env()
	getenv := func(key string) string { return env[key] }

	explicit := a.configPath
	if explicit == "" {
		explicit = getenv("COMMENTX_CONFIG")
	}
	path, where, err := config.Find(".", explicit, getenv("XDG_CONFIG_HOME"), getenv("HOME"))
	if err != nil {
		return config.EngineSettings{}, nil, fmt.Errorf("config: %w", err)
	}
	var fileCfg config.Config
	if path != "" {
		fileCfg, err = config.Load(path)
		if err != nil {
			return config.EngineSettings{}, nil, fmt.Errorf("config %s: %w", path, err)
		}
		logger.Debug("config loaded", "path", path, "from", where)
	}
	envCfg, err := config.FromEnv(getenv)
	if err != nil {
		return config.EngineSettings{}, nil, err
	}

	settings := config.MergeEngine(config.EngineSettingsFromOptions(base), fileCfg.Engine, envCfg.Engine, flags)
	settings, err = config.NormalizeEngine(settings)
	if err != nil {
		return config.EngineSettings{}, nil, err
	}
	classifier, err := config.Classifier(config.MergeLanguages(fileCfg.Languages, envCfg.Languages))
	if err != nil {
		return config.EngineSettings{}, nil, err
	}
	return settings, classifier, nil
}
