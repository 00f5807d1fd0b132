package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/phyten/commentx/internal/engine"
)

var markdownEscaper = strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>", "|", `\|`)

// WriteMarkdownTable renders a GitHub Flavored Markdown table. Numeric columns
// are right-aligned; line breaks inside comments become <br>.
func WriteMarkdownTable(w io.Writer, items []engine.Item, sel FieldSelection) error {
	bw := bufio.NewWriter(w)
	first := true
	err := eachRecord(items, sel, func(cells []string) error {
		writeMarkdownRow(bw, cells)
		if first {
			first = false
			sep := make([]string, len(sel.Fields))
			for i, f := range sel.Fields {
				sep[i] = "---"
				if numericField(f.Key) {
					sep[i] = "---:"
				}
			}
			writeMarkdownRow(bw, sep)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

func writeMarkdownRow(bw *bufio.Writer, cells []string) {
	_, _ = bw.WriteString("|")
	for _, c := range cells {
		_, _ = bw.WriteString(" ")
		_, _ = bw.WriteString(markdownEscaper.Replace(c))
		_, _ = bw.WriteString(" |")
	}
	_ = bw.WriteByte('\n')
}
