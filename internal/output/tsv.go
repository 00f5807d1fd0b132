package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/phyten/commentx/internal/engine"
)

var tsvEscaper = strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\r", `\r`, "\n", `\n`)

// WriteTSV writes one header line and one line per item. Backslashes, tabs and
// line breaks inside cells are escaped so every record stays on one line.
func WriteTSV(w io.Writer, items []engine.Item, sel FieldSelection) error {
	bw := bufio.NewWriter(w)
	err := eachRecord(items, sel, func(cells []string) error {
		for i, c := range cells {
			if i > 0 {
				_ = bw.WriteByte('\t')
			}
			_, _ = bw.WriteString(tsvEscaper.Replace(c))
		}
		return bw.WriteByte('\n')
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
