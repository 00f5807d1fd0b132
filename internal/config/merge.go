package config

import "strings"

// MergeEngine は base に layers を順に重ねる。後のレイヤーほど優先され、
// nil のフィールドは下のレイヤーの値を残す。
func MergeEngine(base EngineSettings, layers ...EngineConfig) EngineSettings {
	out := base
	out.Includes = cloneStrings(base.Includes)
	out.Excludes = cloneStrings(base.Excludes)
	for _, l := range layers {
		overlay(&out.Charset, l.Charset)
		overlay(&out.Lang, l.Lang)
		overlayList(&out.Includes, l.Includes)
		overlayList(&out.Excludes, l.Excludes)
		overlay(&out.ExcludeTypical, l.ExcludeTypical)
		overlay(&out.IncludeHidden, l.IncludeHidden)
		overlay(&out.NoGitignore, l.NoGitignore)
		overlay(&out.UseGit, l.UseGit)
		overlay(&out.MaxFileBytes, l.MaxFileBytes)
		overlay(&out.SkipEmpty, l.SkipEmpty)
		overlay(&out.Jobs, l.Jobs)
		overlay(&out.Output, l.Output)
		overlay(&out.Color, l.Color)
		overlay(&out.Truncate, l.Truncate)
		overlay(&out.Fields, l.Fields)
	}
	for _, s := range []*string{&out.Charset, &out.Lang, &out.Output, &out.Color, &out.Fields} {
		*s = strings.TrimSpace(*s)
	}
	if out.Output == "" {
		out.Output = "table"
	}
	if out.Color == "" {
		out.Color = "auto"
	}
	return out
}

func overlay[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// overlayList は空リストを「明示的に空にする」指定として扱う。
func overlayList(dst *[]string, v *[]string) {
	if v == nil {
		return
	}
	if len(*v) == 0 {
		*dst = []string{}
		return
	}
	*dst = cloneStrings(*v)
}

// MergeLanguages は languages セクションを重ねる。同じキーは後勝ち。
func MergeLanguages(layers ...map[string]string) map[string]string {
	var out map[string]string
	for _, layer := range layers {
		for k, v := range layer {
			if out == nil {
				out = make(map[string]string)
			}
			out[k] = v
		}
	}
	return out
}
