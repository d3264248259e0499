package types

import "time"

// BackupVersion is written into every backup document.
const BackupVersion = "1.0"

// BackupDocument is a point-in-time snapshot of the record store.
// Once written it is never modified.
type BackupDocument struct {
	Info       BackupInfo `json:"backup_info"`
	Records    []Record   `json:"records"`
	Statistics Statistics `json:"statistics"`
}

// BackupInfo is the metadata header of a backup document.
type BackupInfo struct {
	// ID uniquely identifies the backup.
	ID string `json:"id"`

	// CreatedAt is the time the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`

	// CreatedBy is the username that requested the backup.
	CreatedBy string `json:"created_by"`

	// TotalRecords equals len(Records).
	TotalRecords int `json:"total_records"`

	// BackupVersion is the document format version.
	BackupVersion string `json:"backup_version"`
}

// BackupResult describes a written backup.
type BackupResult struct {
	Key  string     `json:"key"`
	Size int64      `json:"size"`
	Info BackupInfo `json:"backup_info"`
}
