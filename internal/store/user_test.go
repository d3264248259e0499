package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/types"
)

type memUserPersister struct {
	users []types.User
	fail  error
}

func (m *memUserPersister) LoadUsers(context.Context) ([]types.User, error) {
	return m.users, nil
}

func (m *memUserPersister) SaveUsers(_ context.Context, users []types.User) error {
	if m.fail != nil {
		return m.fail
	}
	m.users = users
	return nil
}

func TestUserStore_CreateAndUpdate(t *testing.T) {
	p := &memUserPersister{}
	s := NewUserStore(p)
	require.NoError(t, s.Load(context.Background()))

	created, err := s.Create(context.Background(), types.User{Username: "clerk", Role: types.RoleUser, PasswordHash: "a"})
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.Create(context.Background(), types.User{Username: "clerk"})
	assert.ErrorIs(t, err, ErrConflict)

	created.PasswordHash = "b"
	_, err = s.Update(context.Background(), created)
	require.NoError(t, err)
	got, err := s.GetByUsername(context.Background(), "clerk")
	require.NoError(t, err)
	assert.Equal(t, "b", got.PasswordHash)

	_, err = s.Update(context.Background(), types.User{Username: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStore_FailedPersistRollsBack(t *testing.T) {
	p := &memUserPersister{}
	s := NewUserStore(p)
	_, err := s.Create(context.Background(), types.User{Username: "clerk", PasswordHash: "a"})
	require.NoError(t, err)

	p.fail = errors.New("read-only")
	_, err = s.Create(context.Background(), types.User{Username: "other"})
	require.Error(t, err)
	assert.Equal(t, 1, s.Count())

	_, err = s.Update(context.Background(), types.User{Username: "clerk", PasswordHash: "b"})
	require.Error(t, err)
	got, _ := s.GetByUsername(context.Background(), "clerk")
	assert.Equal(t, "a", got.PasswordHash)
}
