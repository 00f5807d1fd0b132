package config

import (
	"fmt"
	"strings"

	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/lang"
	"github.com/phyten/commentx/internal/termcolor"
)

// CanonicalizeColor は color の値を auto / always / never に揃える。
func CanonicalizeColor(raw string) (string, error) {
	mode, err := termcolor.ParseMode(raw)
	if err != nil {
		return "", fmt.Errorf("invalid color: %s", raw)
	}
	return string(mode), nil
}

// NormalizeEngine は表示系の値（output / color / truncate / fields）を検証する。
// 抽出系の値は engine/opts.NormalizeAndValidate が扱う。
func NormalizeEngine(values EngineSettings) (EngineSettings, error) {
	var err error
	values.Fields = strings.TrimSpace(values.Fields)
	values.Output, err = engineopts.NormalizeOutput(values.Output)
	if err != nil {
		return values, err
	}
	values.Color, err = CanonicalizeColor(values.Color)
	if err != nil {
		return values, err
	}
	if values.Truncate < 0 {
		return values, fmt.Errorf("truncate must be >= 0")
	}
	if values.MaxFileBytes < 0 {
		return values, fmt.Errorf("max_file_bytes must be >= 0")
	}
	return values, nil
}

// Classifier は languages の上書きを lang.Classifier に変換する。
func Classifier(languages map[string]string) (*lang.Classifier, error) {
	if len(languages) == 0 {
		return lang.NewClassifier(nil), nil
	}
	overrides := make(map[string]lang.ID, len(languages))
	for key, name := range languages {
		id, err := lang.ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("languages.%s: %w", key, err)
		}
		overrides[key] = id
	}
	return lang.NewClassifier(overrides), nil
}
