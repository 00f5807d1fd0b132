package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	engineopts "github.com/phyten/commentx/internal/engine/opts"
	"github.com/phyten/commentx/internal/lang"
)

// keyAliases は設定キーの別名。正規化（小文字化・"-" → "_"）の後に引く。
var keyAliases = map[string]string{
	"encoding":  "charset",
	"language":  "lang",
	"includes":  "include",
	"excludes":  "exclude",
	"hidden":    "include_hidden",
	"use_git":   "git",
	"max_bytes": "max_file_bytes",
}

// fieldDecoder converts one raw value and stores it in the layer.
type fieldDecoder func(dst *EngineConfig, key string, v any) error

func field[T any](slot func(*EngineConfig) **T, conv func(v any, key string) (T, error)) fieldDecoder {
	return func(dst *EngineConfig, key string, v any) error {
		x, err := conv(v, key)
		if err != nil {
			return err
		}
		*slot(dst) = &x
		return nil
	}
}

var engineFields = map[string]fieldDecoder{
	"charset":         field(func(c *EngineConfig) **string { return &c.Charset }, asString),
	"lang":            field(func(c *EngineConfig) **string { return &c.Lang }, asString),
	"include":         field(func(c *EngineConfig) **[]string { return &c.Includes }, asList),
	"exclude":         field(func(c *EngineConfig) **[]string { return &c.Excludes }, asList),
	"exclude_typical": field(func(c *EngineConfig) **bool { return &c.ExcludeTypical }, asBool),
	"include_hidden":  field(func(c *EngineConfig) **bool { return &c.IncludeHidden }, asBool),
	"no_gitignore":    field(func(c *EngineConfig) **bool { return &c.NoGitignore }, asBool),
	"git":             field(func(c *EngineConfig) **bool { return &c.UseGit }, asBool),
	"max_file_bytes":  field(func(c *EngineConfig) **int { return &c.MaxFileBytes }, asInt),
	"skip_empty":      field(func(c *EngineConfig) **bool { return &c.SkipEmpty }, asBool),
	"jobs":            field(func(c *EngineConfig) **int { return &c.Jobs }, asInt),
	"output":          field(func(c *EngineConfig) **string { return &c.Output }, asString),
	"color":           field(func(c *EngineConfig) **string { return &c.Color }, asString),
	"truncate":        field(func(c *EngineConfig) **int { return &c.Truncate }, asInt),
	"fields":          field(func(c *EngineConfig) **string { return &c.Fields }, asString),
}

// Load は拡張子に応じて YAML / TOML / JSON の設定ファイルを読み込む。
// engine のキーはトップレベルにも [engine] セクションにも書ける。空のパスは空の Config。
func Load(path string) (Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".toml":
		err = toml.Unmarshal(data, &raw)
	case ".json":
		err = json.Unmarshal(data, &raw)
	default:
		return Config{}, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg, err := decode(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decode(raw map[string]any) (Config, error) {
	var cfg Config
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		value := raw[key]
		var err error
		switch canonicalKey(key) {
		case "engine":
			err = decodeEngineSection(value, &cfg.Engine)
		case "languages":
			cfg.Languages, err = decodeLanguages(value)
			if err != nil {
				err = fmt.Errorf("languages: %w", err)
			}
		default:
			err = decodeEngineKey(&cfg.Engine, key, value, "config")
		}
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func decodeEngineSection(value any, dst *EngineConfig) error {
	section, err := stringKeyed(value)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(section)) {
		if err := decodeEngineKey(dst, key, section[key], "engine"); err != nil {
			return err
		}
	}
	return nil
}

func decodeEngineKey(dst *EngineConfig, key string, value any, scope string) error {
	name := canonicalKey(key)
	dec, ok := engineFields[name]
	if !ok {
		return fmt.Errorf("unknown %s key: %s", scope, key)
	}
	if err := dec(dst, name, value); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}

// decodeLanguages は languages セクションを検証し、キーを小文字に、値を言語 ID に揃える。
func decodeLanguages(value any) (map[string]string, error) {
	section, err := stringKeyed(value)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(section))
	for _, k := range slices.Sorted(maps.Keys(section)) {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			return nil, fmt.Errorf("empty language key")
		}
		name, err := asString(section[k], k)
		if err != nil {
			return nil, err
		}
		id, err := lang.ParseID(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[key] = id.String()
	}
	return out, nil
}

func canonicalKey(key string) string {
	k := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

func asString(v any, key string) (string, error) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), nil
	case nil:
		return "", fmt.Errorf("%s cannot be null", key)
	}
	return "", fmt.Errorf("expected string for %s, got %T", key, v)
}

func asBool(v any, key string) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return engineopts.ParseBool(b, key)
	}
	return false, fmt.Errorf("expected bool for %s, got %T", key, v)
}

// asInt accepts the integer shapes the three decoders produce: int (YAML),
// int64 (TOML), float64 without a fraction (JSON), plus numeric strings.
func asInt(v any, key string) (int, error) {
	switch v.(type) {
	case int, int64, uint64, float64, json.Number, string:
		n, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(v)))
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %v", key, v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer for %s, got %T", key, v)
}

// asList accepts a list or one comma-separated string. An empty result is
// kept so that a layer can clear the list.
func asList(v any, key string) ([]string, error) {
	var items []string
	switch l := v.(type) {
	case string:
		items = engineopts.SplitMulti([]string{l})
	case []string:
		for _, s := range l {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
	case []any:
		for _, item := range l {
			s, err := asString(item, key)
			if err != nil {
				return nil, err
			}
			if s != "" {
				items = append(items, s)
			}
		}
	default:
		return nil, fmt.Errorf("expected string or list for %s, got %T", key, v)
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}

func stringKeyed(v any) (map[string]any, error) {
	switch m := v.(type) {
	case map[string]any:
		return m, nil
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, value := range m {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key: %v", k)
			}
			out[key] = value
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected map, got %T", v)
}
