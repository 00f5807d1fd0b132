package termcolor

import (
	"github.com/fatih/color"

	"github.com/phyten/commentx/internal/model"
)

// Palette は表出力で使う色の組。無効なときは各関数が文字列をそのまま返す。
type Palette struct {
	Header   func(a ...any) string
	Location func(a ...any) string
	Lang     func(a ...any) string
	line     func(a ...any) string
	block    func(a ...any) string
}

// NewPalette は enabled に応じて着色する Palette を作る。
// color.NoColor（グローバル設定）には依存しない。
func NewPalette(enabled bool) Palette {
	return Palette{
		Header:   sprint(enabled, color.Bold),
		Location: sprint(enabled, color.FgCyan),
		Lang:     sprint(enabled, color.FgMagenta),
		line:     sprint(enabled, color.FgGreen),
		block:    sprint(enabled, color.FgYellow),
	}
}

// Kind はコメント種別ごとの色で s を着色する。
func (p Palette) Kind(kind model.Kind, s string) string {
	switch kind {
	case model.KindLine:
		return p.line(s)
	case model.KindBlock:
		return p.block(s)
	default:
		return s
	}
}

func sprint(enabled bool, attrs ...color.Attribute) func(a ...any) string {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}
