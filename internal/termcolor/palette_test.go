package termcolor

import (
	"strings"
	"testing"

	"github.com/phyten/commentx/internal/model"
)

func TestPaletteは無効時に装飾しない(t *testing.T) {
	p := NewPalette(false)
	if got := p.Header("FILE"); got != "FILE" {
		t.Fatalf("無効時のヘッダーは装飾しないべきです: %q", got)
	}
	if got := p.Kind(model.KindBlock, "block"); got != "block" {
		t.Fatalf("無効時の種別は装飾しないべきです: %q", got)
	}
	if got := p.Location("a.go"); got != "a.go" {
		t.Fatalf("無効時の位置は装飾しないべきです: %q", got)
	}
}

func TestPaletteは有効時にSGRで囲む(t *testing.T) {
	p := NewPalette(true)
	for name, got := range map[string]string{
		"header": p.Header("FILE"),
		"line":   p.Kind(model.KindLine, "line"),
		"block":  p.Kind(model.KindBlock, "block"),
		"lang":   p.Lang("GO"),
	} {
		if !strings.HasPrefix(got, "\x1b[") {
			t.Fatalf("%s が SGR シーケンスで始まっていません: %q", name, got)
		}
	}
	if got := p.Kind(model.Kind("other"), "x"); got != "x" {
		t.Fatalf("未知の種別は装飾しないべきです: %q", got)
	}
}
