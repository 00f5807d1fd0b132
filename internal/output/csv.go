package output

import (
	"encoding/csv"
	"io"

	"github.com/phyten/commentx/internal/engine"
)

// WriteCSV writes RFC 4180 records with CRLF line endings. Multi-line comments
// stay intact inside quoted cells.
func WriteCSV(w io.Writer, items []engine.Item, sel FieldSelection) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := eachRecord(items, sel, cw.Write); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
