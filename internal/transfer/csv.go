package transfer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"

	"github.com/lgu-records/recordkeeper/types"
)

func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// utf8BOM prefixes files saved as "CSV UTF-8" by spreadsheet programs.
var utf8BOM = []byte("\ufeff")

// ReadCSV returns every row of a CSV file, header included. Rows may have
// differing lengths. A leading byte-order mark is dropped.
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}
