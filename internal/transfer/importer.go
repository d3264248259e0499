package transfer

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lgu-records/recordkeeper/types"
)

// headerAliases maps accepted column headers onto record fields.
var headerAliases = map[string]string{
	"date":        "date",
	"sender":      "sender",
	"from":        "sender",
	"subject":     "subject",
	"destination": "destination",
	"to":          "destination",
	"status":      "status",
}

var requiredColumns = []string{"sender", "subject", "destination"}

// Parsed is the outcome of reading an import file.
type Parsed struct {
	// Records carry sender, subject, destination, raw date and status.
	// Identifiers are never read from the file.
	Records []types.Record
	// Skipped counts data rows lacking a sender or subject.
	Skipped int
}

// ReadTable reads every row of an import file, header first.
func ReadTable(r io.Reader, f Format) ([][]string, error) {
	switch f {
	case FormatExcel:
		return ReadExcel(r)
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	case FormatXML:
		return ReadXML(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Read parses an import file in format f.
func Read(r io.Reader, f Format) (Parsed, error) {
	if _, err := ParseFormat(string(f)); err != nil {
		return Parsed{}, err
	}
	table, err := ReadTable(r, f)
	if err != nil {
		return Parsed{}, fmt.Errorf("%w as %s: %v", ErrUnreadable, f, err)
	}
	return ParseTable(table)
}

// ParseTable maps a header-first table onto records. Headers match
// case-insensitively after trimming; "to" stands in for "destination".
func ParseTable(table [][]string) (Parsed, error) {
	if len(table) == 0 {
		return Parsed{}, fmt.Errorf("%w: %s (file is empty)", ErrMissingColumns, strings.Join(requiredColumns, ", "))
	}

	cols := map[string]int{}
	for i, name := range table[0] {
		field, ok := headerAliases[normalizeHeader(name)]
		if !ok {
			continue
		}
		// The canonical header wins over its alias.
		if _, taken := cols[field]; taken && normalizeHeader(name) != field {
			continue
		}
		cols[field] = i
	}

	var missing []string
	for _, field := range requiredColumns {
		if _, ok := cols[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return Parsed{}, fmt.Errorf("%w: %s (found: %s)", ErrMissingColumns,
			strings.Join(missing, ", "), strings.Join(table[0], ", "))
	}

	out := Parsed{Records: []types.Record{}}
	for _, row := range table[1:] {
		if blankRow(row) {
			continue
		}
		rec := types.Record{
			Sender:      cell(row, cols, "sender"),
			Subject:     cell(row, cols, "subject"),
			Destination: cell(row, cols, "destination"),
			Date:        cell(row, cols, "date"),
			Status:      types.NormalizeStatus(cell(row, cols, "status")),
		}
		if rec.Sender == "" || rec.Subject == "" {
			out.Skipped++
			continue
		}
		out.Records = append(out.Records, rec)
	}
	if len(out.Records) == 0 {
		return out, ErrNoValidRows
	}
	return out, nil
}

func normalizeHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

func cell(row []string, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}
	return v
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sortedObjectKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
