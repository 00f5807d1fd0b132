package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/phyten/commentx/internal/engine"
	"github.com/phyten/commentx/internal/termcolor"
	"github.com/phyten/commentx/internal/textutil"
)

// TableOptions は表出力の表示設定
type TableOptions struct {
	// Truncate は comment 列の最大表示幅（0 は無制限）
	Truncate int
	Color    bool
}

const (
	columnGap = "  "
	ellipsis  = "…"
)

// WriteTable renders items as space-aligned columns. Widths are measured in
// terminal cells, so East Asian text and escape sequences line up.
func WriteTable(w io.Writer, items []engine.Item, sel FieldSelection, opt TableOptions) error {
	palette := termcolor.NewPalette(opt.Color)
	headers := Headers(sel.Fields)

	rows := make([][]string, 0, len(items))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = textutil.VisibleWidth(h)
	}
	for _, it := range items {
		row := RowValues(it, sel.Fields)
		for i, f := range sel.Fields {
			if f.Key == "comment" {
				row[i] = textutil.OneLine(row[i])
				if opt.Truncate > 0 {
					row[i] = textutil.TruncateByWidth(row[i], opt.Truncate, ellipsis)
				}
			}
			if vw := textutil.VisibleWidth(row[i]); vw > widths[i] {
				widths[i] = vw
			}
		}
		rows = append(rows, row)
	}

	bw := bufio.NewWriter(w)
	writeLine := func(cells []string) {
		last := len(cells) - 1
		for i, c := range cells {
			if i == last {
				_, _ = bw.WriteString(c)
				break
			}
			_, _ = bw.WriteString(textutil.PadRight(c, widths[i]))
			_, _ = bw.WriteString(columnGap)
		}
		_ = bw.WriteByte('\n')
	}

	colored := make([]string, len(headers))
	for i, h := range headers {
		colored[i] = palette.Header(h)
	}
	writeLine(colored)
	for idx, row := range rows {
		it := items[idx]
		for i, f := range sel.Fields {
			switch f.Key {
			case "kind":
				row[i] = palette.Kind(it.Kind, row[i])
			case "file", "location", "uri":
				row[i] = palette.Location(row[i])
			case "lang":
				row[i] = palette.Lang(row[i])
			}
		}
		writeLine(row)
	}
	return bw.Flush()
}

// Summary は表出力の末尾に付ける 1 行の集計
func Summary(res *engine.Result) string {
	s := fmt.Sprintf("%d comments in %d files", res.Total, res.Files)
	if res.ErrorCount > 0 {
		s += fmt.Sprintf(", %d errors", res.ErrorCount)
	}
	return s
}
