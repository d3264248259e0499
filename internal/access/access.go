// Package access decides which roles may perform which operations.
package access

import (
	"errors"
	"fmt"

	"github.com/lgu-records/recordkeeper/types"
)

// ErrPermissionDenied is returned when a role may not perform an operation.
var ErrPermissionDenied = errors.New("permission denied")

// Operation names a gated store or account operation.
type Operation string

const (
	OpAddRecord      Operation = "add_record"
	OpListRecords    Operation = "list_records"
	OpSearchRecords  Operation = "search_records"
	OpEditRecord     Operation = "edit_record"
	OpSetStatus      Operation = "set_status"
	OpExport         Operation = "export"
	OpChangePassword Operation = "change_password"

	OpDeleteRecord Operation = "delete_record"
	OpStatistics   Operation = "statistics"
	OpImport       Operation = "import"
	OpBackup       Operation = "backup"
	OpRestore      Operation = "restore"
	OpReset        Operation = "reset"
	OpManageUsers  Operation = "manage_users"
)

var adminOnly = map[Operation]bool{
	OpDeleteRecord: true,
	OpStatistics:   true,
	OpImport:       true,
	OpBackup:       true,
	OpRestore:      true,
	OpReset:        true,
	OpManageUsers:  true,
}

var known = map[Operation]bool{
	OpAddRecord:      true,
	OpListRecords:    true,
	OpSearchRecords:  true,
	OpEditRecord:     true,
	OpSetStatus:      true,
	OpExport:         true,
	OpChangePassword: true,
}

// Check returns nil when role may perform op and an error wrapping
// ErrPermissionDenied otherwise. Unknown roles and operations are denied.
func Check(role string, op Operation) error {
	switch role {
	case types.RoleAdmin:
		if adminOnly[op] || known[op] {
			return nil
		}
	case types.RoleUser:
		if known[op] {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q cannot %s", ErrPermissionDenied, role, op)
}

// Allowed is Check as a boolean.
func Allowed(role string, op Operation) bool {
	return Check(role, op) == nil
}

// AdminOnly reports whether op requires the admin role.
func AdminOnly(op Operation) bool {
	return adminOnly[op]
}
