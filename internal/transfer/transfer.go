// Package transfer moves records in and out of spreadsheet, CSV, JSON and
// XML files.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/lgu-records/recordkeeper/types"
)

var (
	// ErrUnsupportedFormat is returned for an unknown format or extension.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrMissingColumns is returned when an import lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrNoValidRows is returned when an import holds no usable row.
	ErrNoValidRows = errors.New("no valid records found to import")
	// ErrUnreadable is returned when an import file cannot be decoded.
	ErrUnreadable = errors.New("cannot read file")
)

// Format is a file format understood by the exporters and importers.
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
)

// ExportColumns is the fixed column order of every export.
var ExportColumns = []string{"id", "date", "sender", "subject", "destination", "status"}

// ExcelSheet names the worksheet holding exported records.
const ExcelSheet = "Document Records"

// ParseFormat accepts a format name or file extension, with or without
// the leading dot. "excel" and "xls" are accepted for xlsx.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "xlsx", "xls", "excel":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatFromFilename picks the format from the file extension.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	case FormatXML:
		return "application/xml"
	}
	return "application/octet-stream"
}

// ExportFilename returns records_export_YYYYMMDD_HHMMSS.<ext>.
func ExportFilename(f Format, now time.Time) string {
	return fmt.Sprintf("records_export_%s.%s", now.Format("20060102_150405"), f)
}

// Export writes records to w in format f.
func Export(w io.Writer, f Format, records []types.Record) error {
	switch f {
	case FormatExcel:
		return WriteExcel(w, records)
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	case FormatXML:
		return WriteXML(w, records)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

func recordRow(r types.Record) []string {
	return []string{r.ID, r.Date, r.Sender, r.Subject, r.Destination, r.Status}
}
