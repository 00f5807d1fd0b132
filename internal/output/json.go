package output

import (
	"encoding/json"
	"io"

	"github.com/phyten/commentx/internal/engine"
)

// WriteJSON renders the whole result (items, counters and errors) as indented JSON.
func WriteJSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
