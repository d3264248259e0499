package store

import (
	"context"

	"github.com/lgu-records/recordkeeper/types"
)

// Snapshot is everything the record store needs to survive a restart.
type Snapshot struct {
	Records []types.Record
	// Counter is the sequence number of the last assigned identifier.
	Counter int
}

// RecordPersister loads and saves the whole record snapshot.
type RecordPersister interface {
	LoadRecords(ctx context.Context) (Snapshot, error)
	SaveRecords(ctx context.Context, snap Snapshot) error
}

// UserPersister loads and saves the whole user table.
type UserPersister interface {
	LoadUsers(ctx context.Context) ([]types.User, error)
	SaveUsers(ctx context.Context, users []types.User) error
}
