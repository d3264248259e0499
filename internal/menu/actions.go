package menu

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/store"
	"github.com/lgu-records/recordkeeper/internal/transfer"
	"github.com/lgu-records/recordkeeper/types"
)

// report prints a one-line description of err.
func (m *Menu) report(err error) {
	switch {
	case errors.Is(err, access.ErrPermissionDenied):
		fmt.Fprintln(m.out, "Permission denied: you do not have the rights to do that.")
	case errors.Is(err, errInvalidNumber):
		fmt.Fprintln(m.out, "Please enter a valid number.")
	case errors.Is(err, store.ErrNotFound):
		fmt.Fprintln(m.out, "Record not found.")
	case errors.Is(err, services.ErrInvalidCredentials):
		fmt.Fprintln(m.out, "Current password is incorrect.")
	default:
		fmt.Fprintf(m.out, "Error: %v\n", err)
	}
}

func (m *Menu) addRecord(ctx context.Context) error {
	var in types.RecordInput
	var err error
	if in.Sender, err = m.prompt("Enter sender name: "); err != nil {
		return err
	}
	if in.Subject, err = m.prompt("Enter subject: "); err != nil {
		return err
	}
	if in.Destination, err = m.prompt("Enter destination: "); err != nil {
		return err
	}
	custom, err := m.prompt("Use custom date? (y/n): ")
	if err != nil {
		return err
	}
	if strings.EqualFold(custom, "y") {
		if in.Date, err = m.prompt("Enter date (YYYY-MM-DD HH:MM:SS): "); err != nil {
			return err
		}
	}

	record, err := m.svc.Records.Add(ctx, *m.user, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nRecord added successfully!")
	fmt.Fprintf(m.out, "Record ID: %s\n", record.ID)
	return nil
}

func (m *Menu) viewRecords(ctx context.Context) error {
	records, err := m.svc.Records.List(ctx, *m.user)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No records found.")
		return nil
	}
	renderRecords(m.out, records)
	return nil
}

func (m *Menu) searchRecords(ctx context.Context) error {
	query, err := m.prompt("Enter search term (sender/subject/destination): ")
	if err != nil || query == "" {
		return err
	}
	records, err := m.svc.Records.Search(ctx, *m.user, query)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No matching records found.")
		return nil
	}
	fmt.Fprintf(m.out, "Found %d matching record(s):\n", len(records))
	renderRecords(m.out, records)
	return nil
}

func (m *Menu) searchByDate(ctx context.Context) error {
	start, err := m.prompt("Enter start date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	end, err := m.prompt("Enter end date (YYYY-MM-DD): ")
	if err != nil {
		return err
	}
	records, err := m.svc.Records.DateRange(ctx, *m.user, start, end)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No records found in the specified date range.")
		return nil
	}
	fmt.Fprintf(m.out, "Found %d record(s) in date range:\n", len(records))
	renderRecords(m.out, records)
	return nil
}

func (m *Menu) editRecord(ctx context.Context) error {
	if err := access.Check(m.user.Role, access.OpEditRecord); err != nil {
		return err
	}
	records, err := m.svc.Records.List(ctx, *m.user)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No records to edit.")
		return nil
	}
	renderRecords(m.out, records)
	i, err := m.choose("\nEnter record number to edit: ", len(records))
	if err != nil {
		return err
	}
	record := records[i]

	fmt.Fprintf(m.out, "\nEditing record: %s\n", record.ID)
	fmt.Fprintln(m.out, "Enter new values (press Enter to keep current value):")

	var patch types.RecordPatch
	fields := []struct {
		label   string
		current string
		target  **string
	}{
		{"Date", record.Date, &patch.Date},
		{"Sender", record.Sender, &patch.Sender},
		{"Subject", record.Subject, &patch.Subject},
		{"Destination", record.Destination, &patch.Destination},
	}
	for _, f := range fields {
		v, err := m.prompt(fmt.Sprintf("%s [%s]: ", f.label, f.current))
		if err != nil {
			return err
		}
		if v != "" && v != f.current {
			*f.target = &v
		}
	}

	fmt.Fprintln(m.out, "\nStatus options: Pending, Completed")
	status, err := m.prompt(fmt.Sprintf("Status [%s]: ", record.Status))
	if err != nil {
		return err
	}
	switch {
	case status == "":
	case types.AcceptedStatus(status):
		if normalized := types.NormalizeStatus(status); normalized != record.Status {
			patch.Status = &normalized
		}
	default:
		fmt.Fprintln(m.out, "Invalid status. Keeping current status.")
	}

	updated, err := m.svc.Records.Update(ctx, *m.user, record.ID, patch)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nRecord updated successfully!")
	renderRecords(m.out, []types.Record{updated})
	return nil
}

func (m *Menu) markDone(ctx context.Context) error {
	if err := access.Check(m.user.Role, access.OpSetStatus); err != nil {
		return err
	}
	records, err := m.svc.Records.List(ctx, *m.user)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No records to mark as done.")
		return nil
	}
	pending := make([]types.Record, 0, len(records))
	for _, r := range records {
		if r.Status != types.StatusCompleted {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(m.out, "All records are already marked as done!")
		return nil
	}

	fmt.Fprintln(m.out, "Records that can be marked as done:")
	renderRecords(m.out, pending)
	i, err := m.choose("\nEnter record number to mark as done: ", len(pending))
	if err != nil {
		return err
	}
	updated, err := m.svc.Records.SetStatus(ctx, *m.user, pending[i].ID, types.StatusCompleted)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nRecord %s marked as done successfully!\n", updated.ID)
	return nil
}

func (m *Menu) deleteRecord(ctx context.Context) error {
	if err := access.Check(m.user.Role, access.OpDeleteRecord); err != nil {
		return err
	}
	records, err := m.svc.Records.List(ctx, *m.user)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(m.out, "No records to delete.")
		return nil
	}
	renderRecords(m.out, records)
	i, err := m.choose("Enter record number to delete: ", len(records))
	if err != nil {
		return err
	}
	if err := m.svc.Records.Delete(ctx, *m.user, records[i].ID); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Record deleted successfully!")
	return nil
}

func (m *Menu) statistics(ctx context.Context) error {
	stats, err := m.svc.Records.Statistics(ctx, *m.user)
	if err != nil {
		return err
	}
	renderStatistics(m.out, stats)
	return nil
}

func (m *Menu) exportRecords(ctx context.Context) error {
	if err := access.Check(m.user.Role, access.OpExport); err != nil {
		return err
	}
	name, err := m.prompt("Enter format (xlsx/csv/json/xml) [xlsx]: ")
	if err != nil {
		return err
	}
	if name == "" {
		name = string(transfer.FormatExcel)
	}
	format, err := transfer.ParseFormat(name)
	if err != nil {
		return err
	}

	filename, err := m.prompt("Enter filename for export (blank for a timestamped name): ")
	if err != nil {
		return err
	}
	if filename == "" {
		filename = m.svc.Transfer.ExportFilename(format)
	} else if filepath.Ext(filename) == "" {
		filename += "." + string(format)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := m.svc.Transfer.Export(ctx, *m.user, format, f); err != nil {
		f.Close()
		os.Remove(filename)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nExport completed! File saved as %s\n", filename)
	return nil
}

func (m *Menu) importAppend(ctx context.Context) error {
	return m.importRecords(ctx, services.ModeAppend)
}

func (m *Menu) importReplace(ctx context.Context) error {
	return m.importRecords(ctx, services.ModeReplace)
}

func (m *Menu) importRecords(ctx context.Context, mode services.LoadMode) error {
	if err := access.Check(m.user.Role, access.OpImport); err != nil {
		return err
	}
	filename, err := m.prompt("Enter filename to import (.xlsx, .csv, .json, .xml): ")
	if err != nil {
		return err
	}
	if filename == "" {
		fmt.Fprintln(m.out, "Please enter a valid filename.")
		return nil
	}
	if filepath.Ext(filename) == "" {
		filename += "." + string(transfer.FormatExcel)
	}

	if mode == services.ModeReplace {
		ok, err := m.confirm("\nWARNING: This will replace ALL existing records. Are you sure? (yes/no): ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(m.out, "Import cancelled.")
			return nil
		}
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	result, err := m.svc.Transfer.Import(ctx, *m.user, f, filename, mode)
	if err != nil {
		return err
	}
	fmt.Fprintln(m.out, "\nImport completed successfully!")
	fmt.Fprintf(m.out, "Imported: %d  Skipped: %d\n", result.Imported, result.Skipped)
	fmt.Fprintf(m.out, "Total records now: %d\n", result.Total)
	return nil
}

func (m *Menu) createBackup(ctx context.Context) error {
	result, err := m.svc.Backups.Create(ctx, *m.user)
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "System backup created successfully as %s.\n", result.Key)
	fmt.Fprintf(m.out, "Backup contains %d records with metadata.\n", result.Info.TotalRecords)
	return nil
}

func (m *Menu) restoreBackup(ctx context.Context) error {
	if err := access.Check(m.user.Role, access.OpRestore); err != nil {
		return err
	}
	backups, err := m.svc.Backups.List(ctx, *m.user)
	if err != nil {
		return err
	}
	if len(backups) > 0 {
		fmt.Fprintln(m.out, "Stored backups:")
		for _, b := range backups {
			fmt.Fprintf(m.out, "  - %s (%d bytes)\n", b.Key, b.Size)
		}
	}

	source, err := m.prompt("Enter backup name or path to a backup file: ")
	if err != nil {
		return err
	}
	if source == "" {
		fmt.Fprintln(m.out, "Please enter a valid backup.")
		return nil
	}
	rawMode, err := m.prompt("Mode (replace/append) [replace]: ")
	if err != nil {
		return err
	}
	mode, err := services.ParseLoadMode(rawMode, services.ModeReplace)
	if err != nil {
		return err
	}
	if mode == services.ModeReplace {
		ok, err := m.confirm("\nWARNING: This will replace ALL existing records. Are you sure? (yes/no): ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(m.out, "Restore cancelled.")
			return nil
		}
	}

	var result services.RestoreResult
	if f, openErr := os.Open(source); openErr == nil {
		defer f.Close()
		result, err = m.svc.Backups.Restore(ctx, *m.user, f, mode)
	} else {
		result, err = m.svc.Backups.RestoreKey(ctx, *m.user, source, mode)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(m.out, "\nRestored %d record(s) (%d skipped).\n", result.Restored, result.Skipped)
	return nil
}

func (m *Menu) changePassword(ctx context.Context) error {
	current, err := m.password("Current password: ")
	if err != nil {
		return err
	}
	next, err := m.password("New password: ")
	if err != nil {
		return err
	}
	again, err := m.password("Confirm new password: ")
	if err != nil {
		return err
	}
	if next != again {
		fmt.Fprintln(m.out, "New passwords do not match.")
		return nil
	}
	if err := m.svc.Users.ChangePassword(ctx, *m.user, current, next); err != nil {
		return err
	}
	fmt.Fprintln(m.out, "Password changed successfully!")
	return nil
}

func (m *Menu) logout(context.Context) error {
	fmt.Fprintln(m.out, "\nLogging out...")
	m.user = nil
	return nil
}
