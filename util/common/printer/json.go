package printer

import (
	"encoding/json"
	"io"
)

// PrintJson writes res as JSON, two-space indented when indent is set.
func PrintJson(w io.Writer, res any, indent bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(res)
}
