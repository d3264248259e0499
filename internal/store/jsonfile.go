package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lgu-records/recordkeeper/types"
)

// CounterFile is written next to the records file and holds the last
// assigned sequence number.
const CounterFile = "counter.txt"

// JSONRecordFile keeps records as an indented JSON array on disk.
type JSONRecordFile struct {
	path string
}

func NewJSONRecordFile(path string) *JSONRecordFile {
	return &JSONRecordFile{path: path}
}

func (f *JSONRecordFile) counterPath() string {
	return filepath.Join(filepath.Dir(f.path), CounterFile)
}

// LoadRecords returns an empty snapshot when neither file exists yet.
func (f *JSONRecordFile) LoadRecords(_ context.Context) (Snapshot, error) {
	var snap Snapshot

	buf, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		snap.Records = []types.Record{}
	case err != nil:
		return Snapshot{}, err
	default:
		if len(strings.TrimSpace(string(buf))) == 0 {
			snap.Records = []types.Record{}
		} else if err := json.Unmarshal(buf, &snap.Records); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", f.path, err)
		}
	}
	for i := range snap.Records {
		snap.Records[i].Status = types.NormalizeStatus(snap.Records[i].Status)
	}

	raw, err := os.ReadFile(f.counterPath())
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Snapshot{}, err
	default:
		if n, err := strconv.Atoi(strings.TrimSpace(string(raw))); err == nil {
			snap.Counter = n
		}
	}
	return snap, nil
}

func (f *JSONRecordFile) SaveRecords(_ context.Context, snap Snapshot) error {
	records := snap.Records
	if records == nil {
		records = []types.Record{}
	}
	buf, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	prev, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	existed := err == nil

	if err := writeFileAtomic(f.path, buf); err != nil {
		return err
	}
	if err := writeFileAtomic(f.counterPath(), []byte(strconv.Itoa(snap.Counter))); err != nil {
		// Put the previous records back so both files stay in step.
		var restoreErr error
		if existed {
			restoreErr = writeFileAtomic(f.path, prev)
		} else {
			restoreErr = os.Remove(f.path)
		}
		return errors.Join(fmt.Errorf("save counter: %w", err), restoreErr)
	}
	return nil
}

// JSONUserFile keeps users as a JSON object keyed by username.
type JSONUserFile struct {
	path string
}

func NewJSONUserFile(path string) *JSONUserFile {
	return &JSONUserFile{path: path}
}

type userEntry struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	Role         string     `json:"role"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func (f *JSONUserFile) LoadUsers(_ context.Context) ([]types.User, error) {
	buf, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []types.User{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(buf))) == 0 {
		return []types.User{}, nil
	}

	entries := map[string]userEntry{}
	if err := json.Unmarshal(buf, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}

	users := make([]types.User, 0, len(entries))
	for name, e := range entries {
		u := types.User{
			Username:     e.Username,
			Role:         e.Role,
			PasswordHash: e.PasswordHash,
		}
		if u.Username == "" {
			u.Username = name
		}
		if e.CreatedAt != nil {
			u.CreatedAt = *e.CreatedAt
		}
		if e.UpdatedAt != nil {
			u.UpdatedAt = *e.UpdatedAt
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (f *JSONUserFile) SaveUsers(_ context.Context, users []types.User) error {
	entries := make(map[string]userEntry, len(users))
	for _, u := range users {
		e := userEntry{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
		}
		if !u.CreatedAt.IsZero() {
			created := u.CreatedAt
			e.CreatedAt = &created
		}
		if !u.UpdatedAt.IsZero() {
			updated := u.UpdatedAt
			e.UpdatedAt = &updated
		}
		entries[u.Username] = e
	}
	buf, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path, buf)
}

// writeFileAtomic replaces path through a temporary file in the same
// directory so readers never observe a half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
