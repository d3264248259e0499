package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lgu-records/recordkeeper/types"
)

// UserStore keeps accounts in memory keyed by username and persists the
// whole table after every change.
type UserStore struct {
	mu        sync.Mutex
	persister UserPersister
	users     map[string]types.User
	now       func() time.Time
}

func NewUserStore(persister UserPersister) *UserStore {
	return &UserStore{
		persister: persister,
		users:     map[string]types.User{},
		now:       time.Now,
	}
}

func (s *UserStore) Load(ctx context.Context) error {
	users, err := s.persister.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]types.User, len(users))
	for _, u := range users {
		s.users[u.Username] = u
	}
	return nil
}

func (s *UserStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *UserStore) GetByUsername(_ context.Context, username string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// List returns every user ordered by username.
func (s *UserStore) List(_ context.Context) []types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted()
}

func (s *UserStore) Create(ctx context.Context, user types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.Username]; ok {
		return types.User{}, ErrConflict
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.Username] = user
	if err := s.persister.SaveUsers(ctx, s.sorted()); err != nil {
		delete(s.users, user.Username)
		return types.User{}, fmt.Errorf("save users: %w", err)
	}
	return user, nil
}

func (s *UserStore) Update(ctx context.Context, user types.User) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.users[user.Username]
	if !ok {
		return types.User{}, ErrNotFound
	}
	user.CreatedAt = prev.CreatedAt
	user.UpdatedAt = s.now()

	s.users[user.Username] = user
	if err := s.persister.SaveUsers(ctx, s.sorted()); err != nil {
		s.users[user.Username] = prev
		return types.User{}, fmt.Errorf("save users: %w", err)
	}
	return user, nil
}

func (s *UserStore) sorted() []types.User {
	out := make([]types.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}
