package transfer

import (
	"encoding/json"
	"io"

	"github.com/lgu-records/recordkeeper/types"
)

func WriteJSON(w io.Writer, records []types.Record) error {
	if records == nil {
		records = []types.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// ReadJSON accepts an array of objects and flattens it into a table whose
// header is the union of keys seen, in first-seen order.
func ReadJSON(r io.Reader) ([][]string, error) {
	var items []map[string]any
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}

	var header []string
	seen := map[string]int{}
	for _, item := range items {
		for _, key := range sortedObjectKeys(item) {
			if _, ok := seen[key]; !ok {
				seen[key] = len(header)
				header = append(header, key)
			}
		}
	}

	table := [][]string{header}
	for _, item := range items {
		row := make([]string, len(header))
		for key, v := range item {
			row[seen[key]] = cellString(v)
		}
		table = append(table, row)
	}
	return table, nil
}
