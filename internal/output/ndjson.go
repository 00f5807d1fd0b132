package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/phyten/commentx/internal/engine"
)

// WriteNDJSON writes one object per comment, shaped like the items of WriteJSON.
func WriteNDJSON(w io.Writer, items []engine.Item) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range items {
		if err := enc.Encode(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return bw.Flush()
}
