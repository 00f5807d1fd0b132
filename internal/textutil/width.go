// Package textutil は端末表示向けの文字幅計算と整形を扱う。
// 幅は書記素クラスタ単位で数え、ANSI エスケープは幅に含めない。
package textutil

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// CSI (色など) と OSC 8 ハイパーリンク
var ansiRe = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

func StripANSI(s string) string {
	if strings.IndexByte(s, 0x1b) < 0 {
		return s
	}
	return ansiRe.ReplaceAllString(s, "")
}

// eachCluster calls fn for every grapheme cluster of the ANSI-stripped s with
// its cell width, stopping early when fn returns false.
func eachCluster(s string, fn func(cluster string, width int) bool) {
	g := uniseg.NewGraphemes(StripANSI(s))
	for g.Next() {
		c := g.Str()
		if !fn(c, runewidth.StringWidth(c)) {
			return
		}
	}
}

// VisibleWidth returns how many terminal cells s occupies.
func VisibleWidth(s string) int {
	total := 0
	eachCluster(s, func(_ string, w int) bool {
		total += w
		return true
	})
	return total
}

// TruncateByWidth cuts s to at most width cells without splitting a cluster.
// When s is cut, ellipsis is appended if it fits in width.
// Escape sequences are dropped from a cut result.
func TruncateByWidth(s string, width int, ellipsis string) string {
	if width <= 0 {
		return ""
	}
	if VisibleWidth(s) <= width {
		return s
	}
	budget := width - runewidth.StringWidth(ellipsis)
	if budget < 0 {
		budget, ellipsis = width, ""
	}
	var b strings.Builder
	used := 0
	eachCluster(s, func(c string, w int) bool {
		if used+w > budget {
			return false
		}
		b.WriteString(c)
		used += w
		return true
	})
	return b.String() + ellipsis
}

// PadRight fills s with trailing spaces up to width cells.
func PadRight(s string, width int) string {
	if pad := width - VisibleWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

var oneLineReplacer = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\n`, "\t", " ")

// OneLine は改行をリテラルの \n に、タブを空白に置き換え、複数行コメントを 1 セルに収める。
func OneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n\t") {
		return s
	}
	return oneLineReplacer.Replace(s)
}
