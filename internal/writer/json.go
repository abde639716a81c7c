package writer

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/virti1331/cc-statement-parser/internal/models"
)

// JSONWriter writes a statement as indented JSON. Output depends only on the
// statement, so the same document always produces the same bytes.
type JSONWriter struct {
	Indent string
}

// WriteToFile writes the statement to a JSON file at the given path.
func (w *JSONWriter) WriteToFile(path string, st *models.Statement) error {
	return writeFile(path, func(out io.Writer) error { return w.Write(out, st) })
}

// Write encodes st to out followed by a newline.
func (w *JSONWriter) Write(out io.Writer, st *models.Statement) error {
	return errors.Wrap(Encode(out, st, w.Indent), "write JSON")
}

// Encode writes v as JSON with HTML escaping disabled, so "&" and "₹" are
// emitted literally.
func Encode(out io.Writer, v any, indent string) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(v)
}
