package textutil

import (
	"testing"

	"github.com/mattn/go-runewidth"
)

func narrowAmbiguous(t *testing.T) {
	t.Helper()
	prev := runewidth.EastAsianWidth
	runewidth.EastAsianWidth = false
	runewidth.DefaultCondition = runewidth.NewCondition()
	t.Cleanup(func() {
		runewidth.EastAsianWidth = prev
		runewidth.DefaultCondition = runewidth.NewCondition()
	})
}

func TestVisibleWidthは書記素単位で数える(t *testing.T) {
	narrowAmbiguous(t)
	cases := map[string]int{
		"":                                                0,
		"abc":                                             3,
		"// 日本語":                                          9,
		"e\u0301":                                         1,
		"\U0001F468\u200d\U0001F4BB":                      2,
		"\x1b[32m緑\x1b[0m":                                2,
		"\x1b]8;;https://example.com\x07link\x1b]8;;\x07": 4,
	}
	for in, want := range cases {
		if got := VisibleWidth(in); got != want {
			t.Fatalf("VisibleWidth(%q) が想定外です: got=%d want=%d", in, got, want)
		}
	}
}

func TestTruncateByWidthは幅に収める(t *testing.T) {
	narrowAmbiguous(t)
	cases := []struct {
		name     string
		in       string
		width    int
		ellipsis string
		want     string
	}{
		{"収まる", "# short", 10, "…", "# short"},
		{"ASCII", "// TODO: refactor", 8, "…", "// TODO…"},
		{"全角", "# コメントです", 8, "…", "# コメ…"},
		{"省略記号なし", "# コメントです", 7, "", "# コメ"},
		{"省略記号が入らない", "abcdef", 2, "...", "ab"},
		{"結合文字を分割しない", "e\u0301e\u0301e\u0301", 2, "", "e\u0301e\u0301"},
		{"幅ゼロ", "abc", 0, "…", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateByWidth(tc.in, tc.width, tc.ellipsis)
			if got != tc.want {
				t.Fatalf("TruncateByWidth(%q, %d) が想定外です: got=%q want=%q", tc.in, tc.width, got, tc.want)
			}
			if w := VisibleWidth(got); w > tc.width {
				t.Fatalf("幅 %d が上限 %d を超えています", w, tc.width)
			}
		})
	}
}

func TestStripANSIはエスケープシーケンスを除去する(t *testing.T) {
	cases := map[string]string{
		"plain":                                        "plain",
		"\x1b[1;31mRed\x1b[0m":                         "Red",
		"\x1b]8;;file:///a.go\x1b\\a.go\x1b]8;;\x1b\\": "a.go",
	}
	for in, want := range cases {
		if got := StripANSI(in); got != want {
			t.Fatalf("StripANSI(%q) が想定外です: got=%q want=%q", in, got, want)
		}
	}
}

func TestPadRightは表示幅で揃える(t *testing.T) {
	narrowAmbiguous(t)
	if got := PadRight("行", 5); got != "行   " {
		t.Fatalf("表示幅で揃えられていません: %q", got)
	}
	if got := PadRight("overflow", 3); got != "overflow" {
		t.Fatalf("幅を超える文字列はそのまま返すべきです: %q", got)
	}
}

func TestOneLineは改行を見える形にする(t *testing.T) {
	cases := map[string]string{
		"plain":          "plain",
		"/* a\n * b */":  `/* a\n * b */`,
		"# x\r\n# y":     `# x\n# y`,
		"old\rmac":       `old\nmac`,
		"tab\tseparated": "tab separated",
		"":               "",
	}
	for in, want := range cases {
		if got := OneLine(in); got != want {
			t.Fatalf("OneLine(%q) が想定外です: got=%q want=%q", in, got, want)
		}
	}
}
