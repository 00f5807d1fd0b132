// Package termcolor は表出力の色付け可否の判定とパレットを扱う。
package termcolor

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Mode は --color の値
type Mode string

const (
	Auto   Mode = "auto"
	Always Mode = "always"
	Never  Mode = "never"
)

func ParseMode(v string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(v))); m {
	case "":
		return Auto, nil
	case Auto, Always, Never:
		return m, nil
	}
	return Auto, fmt.Errorf("unknown color mode: %s", v)
}

// envRule は auto のときに参照する環境変数 1 つ分。envRules の先頭から見て最初に一致した規則が勝つ。
type envRule struct {
	key   string
	match func(v string) bool
	color bool
}

var envRules = []envRule{
	{key: "TERM", match: func(v string) bool { return strings.EqualFold(v, "dumb") }},
	{key: "NO_COLOR", match: func(v string) bool { return v != "" }},
	{key: "CLICOLOR", match: func(v string) bool { return v == "0" }},
	{key: "CLICOLOR_FORCE", match: forced, color: true},
	{key: "FORCE_COLOR", match: forced, color: true},
}

func forced(v string) bool { return v != "" && v != "0" }

// Resolve decides whether table output is colored. Only auto consults env
// and falls back to whether stdout is a terminal; a nil stdout never colors
// in auto mode.
func Resolve(raw string, stdout *os.File, env map[string]string) (bool, error) {
	mode, err := ParseMode(raw)
	if err != nil {
		return false, err
	}
	switch mode {
	case Always:
		return true, nil
	case Never:
		return false, nil
	}
	if stdout == nil {
		return false, nil
	}
	for _, r := range envRules {
		if r.match(strings.TrimSpace(env[r.key])) {
			return r.color, nil
		}
	}
	return term.IsTerminal(int(stdout.Fd())), nil
}

// EnvMap は os.Environ() 形式の一覧を map にする。"=" の無い項目は空値。
func EnvMap(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	return env
}
