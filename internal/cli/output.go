package cli

import (
	"encoding/json"
	"io"
)

// printJSON writes v as indented JSON, the output format of every command.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
