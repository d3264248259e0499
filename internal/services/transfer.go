package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/transfer"
	"github.com/lgu-records/recordkeeper/types"
)

// ImportResult reports what an import did.
type ImportResult struct {
	Mode     LoadMode       `json:"mode"`
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Total    int            `json:"total"`
	Records  []types.Record `json:"records"`
}

// TransferService exports and imports records.
type TransferService struct {
	records *RecordService
	logger  *logrus.Logger
	now     func() time.Time
}

func NewTransferService(records *RecordService, logger *logrus.Logger) *TransferService {
	return &TransferService{records: records, logger: logger, now: time.Now}
}

// Export writes every record to w in format f and returns the suggested
// download filename.
func (s *TransferService) Export(_ context.Context, actor types.User, f transfer.Format, w io.Writer) (string, error) {
	if err := access.Check(actor.Role, access.OpExport); err != nil {
		return "", err
	}
	if err := transfer.Export(w, f, s.records.repo.List()); err != nil {
		return "", err
	}
	return transfer.ExportFilename(f, s.now()), nil
}

// ExportFilename is the name Export would suggest right now.
func (s *TransferService) ExportFilename(f transfer.Format) string {
	return transfer.ExportFilename(f, s.now())
}

// Template writes the xlsx import template.
func (s *TransferService) Template(_ context.Context, actor types.User, w io.Writer) error {
	if err := access.Check(actor.Role, access.OpExport); err != nil {
		return err
	}
	return transfer.WriteTemplate(w)
}

// Import reads records from r, whose format follows filename's extension,
// and appends or replaces per mode. The store is untouched on any error.
func (s *TransferService) Import(ctx context.Context, actor types.User, r io.Reader, filename string, mode LoadMode) (ImportResult, error) {
	if err := access.Check(actor.Role, access.OpImport); err != nil {
		return ImportResult{}, err
	}
	f, err := transfer.FormatFromFilename(filename)
	if err != nil {
		return ImportResult{}, err
	}

	parsed, err := transfer.Read(r, f)
	if err != nil {
		if errors.Is(err, transfer.ErrMissingColumns) ||
			errors.Is(err, transfer.ErrNoValidRows) ||
			errors.Is(err, transfer.ErrUnreadable) {
			return ImportResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return ImportResult{}, err
	}

	added, err := s.records.load(ctx, parsed.Records, mode, "import")
	if err != nil {
		return ImportResult{}, err
	}

	result := ImportResult{
		Mode:     mode,
		Imported: len(added),
		Skipped:  parsed.Skipped,
		Total:    s.records.repo.Count(),
		Records:  added,
	}
	s.logger.WithFields(logrus.Fields{
		"file":     filename,
		"mode":     mode,
		"imported": result.Imported,
		"skipped":  result.Skipped,
		"user":     actor.Username,
	}).Info("records imported")
	return result, nil
}
