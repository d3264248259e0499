package types

import "strings"

// Record statuses. Any other input collapses to StatusPending.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

// NoDate is stored when a record carries no date at all.
const NoDate = "No Date"

// Record represents a single tracked document transmittal: who sent it,
// where it is going, what it is about and whether it has been handled.
type Record struct {
	// ID is the sequential identifier, e.g. "MAYOR'S OFFICE - 001".
	// It is assigned by the store and never taken from input.
	ID string `json:"id" db:"id"`

	// Date is the canonical date string ("2006-01-02" or
	// "2006-01-02 15:04:05"), the NoDate sentinel, or the original
	// text when it could not be recognized.
	Date string `json:"date" db:"date"`

	// Sender is the person or office the document came from.
	Sender string `json:"sender" db:"sender"`

	// Subject describes the document.
	Subject string `json:"subject" db:"subject"`

	// Destination is the person or office the document is routed to.
	Destination string `json:"destination" db:"destination"`

	// Status is either StatusPending or StatusCompleted.
	Status string `json:"status" db:"status"`
}

// RecordInput carries the caller-supplied fields of a new record.
type RecordInput struct {
	Sender      string `json:"sender"`
	Subject     string `json:"subject"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Status      string `json:"status"`
}

// RecordPatch holds optional edits; nil fields are left untouched.
type RecordPatch struct {
	Sender      *string `json:"sender,omitempty"`
	Subject     *string `json:"subject,omitempty"`
	Destination *string `json:"destination,omitempty"`
	Date        *string `json:"date,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// NormalizeStatus maps free-form status input onto the two known values.
func NormalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "done", "completed":
		return StatusCompleted
	default:
		return StatusPending
	}
}

// AcceptedStatus reports whether status is a recognized status input:
// pending, completed or done in any case.
func AcceptedStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "completed", "done":
		return true
	}
	return false
}
