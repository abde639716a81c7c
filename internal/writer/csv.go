package writer

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/virti1331/cc-statement-parser/internal/models"
)

// CSVWriter writes a statement's transactions as CSV.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the statement to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, st *models.Statement) error {
	return writeFile(path, func(out io.Writer) error { return w.Write(out, st) })
}

// Write writes the statement in CSV format to out.
func (w *CSVWriter) Write(out io.Writer, st *models.Statement) error {
	writer := csv.NewWriter(out)

	// Statement fields as "# name,value" rows ahead of the table.
	if w.IncludeHeader {
		rows := [][]string{{"# Issuer", string(st.Issuer)}}
		for _, f := range models.ScalarFields {
			if v := st.Get(f); v != nil {
				rows = append(rows, []string{"# " + string(f), *v})
			}
		}
		if err := writer.WriteAll(rows); err != nil {
			return errors.Wrap(err, "write CSV metadata")
		}
	}

	if err := writer.Write([]string{"Date", "Description", "Amount"}); err != nil {
		return errors.Wrap(err, "write CSV header")
	}
	for _, txn := range st.Transactions {
		if err := writer.Write([]string{txn.Date, txn.Description, txn.Amount}); err != nil {
			return errors.Wrap(err, "write CSV row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "flush CSV")
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create output file %q", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close output file %q", path)
}
