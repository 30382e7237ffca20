package cli

import (
	"encoding/json"
	"io"
)

// writeJSON encodes the value as indented JSON. HTML escaping is off so
// the comparison operators (<, <=, >, >=) in a dumped policy AST print as
// themselves instead of < escapes.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
