package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/types"
)

func TestJSONRecordFile_RoundTripWithCounter(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONRecordFile(filepath.Join(dir, "records.json"))

	empty, err := f.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, empty.Records)
	assert.Zero(t, empty.Counter)

	s := NewRecordStore(f, "")
	_, err = s.Load(context.Background())
	require.NoError(t, err)
	_, err = s.Add(context.Background(), types.RecordInput{Sender: "A", Subject: "a", Destination: "x", Date: "2025-01-02"})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, CounterFile))
	require.NoError(t, err)
	assert.Equal(t, "1", string(raw))

	reloaded := NewRecordStore(f, "")
	_, err = reloaded.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, s.List(), reloaded.List())
	assert.Equal(t, "MAYOR'S OFFICE - 002", reloaded.NextID())
}

func TestJSONRecordFile_CounterFailureRestoresRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	f := NewJSONRecordFile(path)

	first := Snapshot{Records: []types.Record{{ID: "MAYOR'S OFFICE - 001", Date: "2025-01-02", Sender: "A", Subject: "a", Destination: "x", Status: types.StatusPending}}, Counter: 1}
	require.NoError(t, f.SaveRecords(context.Background(), first))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A directory in the counter's place makes the counter rename fail.
	require.NoError(t, os.Remove(filepath.Join(dir, CounterFile)))
	require.NoError(t, os.Mkdir(filepath.Join(dir, CounterFile), 0o755))

	second := Snapshot{Records: append(cloneRecords(first.Records), types.Record{ID: "MAYOR'S OFFICE - 002", Sender: "B", Subject: "b", Destination: "y", Status: types.StatusPending}), Counter: 2}
	require.Error(t, f.SaveRecords(context.Background(), second))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestJSONRecordFile_CounterFailureWithoutPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	require.NoError(t, os.Mkdir(filepath.Join(dir, CounterFile), 0o755))

	snap := Snapshot{Records: []types.Record{{ID: "MAYOR'S OFFICE - 001", Sender: "A", Subject: "a", Destination: "x"}}, Counter: 1}
	require.Error(t, NewJSONRecordFile(path).SaveRecords(context.Background(), snap))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestJSONRecordFile_LegacyStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	legacy := `[{"id":"MAYOR'S OFFICE - 001","date":"2025-01-02","sender":"A","subject":"a","destination":"x","status":"Done"},
	{"id":"MAYOR'S OFFICE - 002","date":"2025-01-03","sender":"B","subject":"b","destination":"y"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	snap, err := NewJSONRecordFile(path).LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, types.StatusCompleted, snap.Records[0].Status)
	assert.Equal(t, types.StatusPending, snap.Records[1].Status)
}

func TestJSONUserFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	f := NewJSONUserFile(path)

	users, err := f.LoadUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)

	s := NewUserStore(f)
	require.NoError(t, s.Load(context.Background()))
	_, err = s.Create(context.Background(), types.User{Username: "clerk", Role: types.RoleUser, PasswordHash: "h"})
	require.NoError(t, err)

	loaded, err := f.LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "clerk", loaded[0].Username)
	assert.Equal(t, "h", loaded[0].PasswordHash)
	assert.False(t, loaded[0].CreatedAt.IsZero())
}

func TestJSONUserFile_LegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	legacy := `{"admin": {"username": "admin", "password_hash": "abc", "role": "admin"}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	users, err := NewJSONUserFile(path).LoadUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin())
	assert.Equal(t, "abc", users[0].PasswordHash)
}
