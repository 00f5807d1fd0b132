package config

import (
	"github.com/phyten/commentx/internal/engine"
)

type EngineConfig struct {
	Charset        *string   `yaml:"charset" toml:"charset" json:"charset"`
	Lang           *string   `yaml:"lang" toml:"lang" json:"lang"`
	Includes       *[]string `yaml:"include" toml:"include" json:"include"`
	Excludes       *[]string `yaml:"exclude" toml:"exclude" json:"exclude"`
	ExcludeTypical *bool     `yaml:"exclude_typical" toml:"exclude_typical" json:"exclude_typical"`
	IncludeHidden  *bool     `yaml:"include_hidden" toml:"include_hidden" json:"include_hidden"`
	NoGitignore    *bool     `yaml:"no_gitignore" toml:"no_gitignore" json:"no_gitignore"`
	UseGit         *bool     `yaml:"git" toml:"git" json:"git"`
	MaxFileBytes   *int      `yaml:"max_file_bytes" toml:"max_file_bytes" json:"max_file_bytes"`
	SkipEmpty      *bool     `yaml:"skip_empty" toml:"skip_empty" json:"skip_empty"`
	Jobs           *int      `yaml:"jobs" toml:"jobs" json:"jobs"`
	Output         *string   `yaml:"output" toml:"output" json:"output"`
	Color          *string   `yaml:"color" toml:"color" json:"color"`
	Truncate       *int      `yaml:"truncate" toml:"truncate" json:"truncate"`
	Fields         *string   `yaml:"fields" toml:"fields" json:"fields"`
}

// Config は 1 つの設定ソース（ファイル・環境変数・フラグ）の内容
type Config struct {
	Engine EngineConfig `yaml:"engine" toml:"engine" json:"engine"`
	// Languages は拡張子（".tpl"）またはファイル名から言語名への上書き
	Languages map[string]string `yaml:"languages" toml:"languages" json:"languages"`
}

type EngineSettings struct {
	Charset        string
	Lang           string
	Includes       []string
	Excludes       []string
	ExcludeTypical bool
	IncludeHidden  bool
	NoGitignore    bool
	UseGit         bool
	MaxFileBytes   int
	SkipEmpty      bool
	Jobs           int
	Output         string
	Color          string
	Truncate       int
	Fields         string
}

func EngineSettingsFromOptions(opts engine.Options) EngineSettings {
	return EngineSettings{
		Charset:        opts.Charset,
		Lang:           opts.Lang,
		Includes:       cloneStrings(opts.Includes),
		Excludes:       cloneStrings(opts.Excludes),
		ExcludeTypical: opts.ExcludeTypical,
		IncludeHidden:  opts.IncludeHidden,
		NoGitignore:    opts.NoGitignore,
		UseGit:         opts.UseGit,
		MaxFileBytes:   int(opts.MaxFileBytes),
		SkipEmpty:      opts.SkipEmpty,
		Jobs:           opts.Jobs,
		Output:         "table",
		Color:          "auto",
	}
}

func (s EngineSettings) ApplyToOptions(opts *engine.Options) {
	if opts == nil {
		return
	}
	opts.Charset = s.Charset
	opts.Lang = s.Lang
	opts.Includes = cloneStrings(s.Includes)
	opts.Excludes = cloneStrings(s.Excludes)
	opts.ExcludeTypical = s.ExcludeTypical
	opts.IncludeHidden = s.IncludeHidden
	opts.NoGitignore = s.NoGitignore
	opts.UseGit = s.UseGit
	opts.MaxFileBytes = int64(s.MaxFileBytes)
	opts.SkipEmpty = s.SkipEmpty
	opts.Jobs = s.Jobs
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
