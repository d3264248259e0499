package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/lgu-records/recordkeeper/internal/dates"
	"github.com/lgu-records/recordkeeper/types"
)

// DefaultIDPrefix is used when no prefix is configured.
const DefaultIDPrefix = "MAYOR'S OFFICE"

// RecordStore owns the ordered record sequence and the identifier counter.
// Every mutation runs read-modify-persist under one mutex; when persisting
// fails the in-memory state is put back the way it was.
type RecordStore struct {
	mu        sync.Mutex
	persister RecordPersister
	prefix    string
	now       func() time.Time

	records []types.Record
	counter int
}

func NewRecordStore(persister RecordPersister, prefix string) *RecordStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultIDPrefix
	}
	return &RecordStore{
		persister: persister,
		prefix:    prefix,
		now:       time.Now,
	}
}

// Load reads the persisted snapshot, rewrites dates that are still in a
// human-readable or month-first form, and re-persists when any changed.
// It returns the number of migrated dates.
func (s *RecordStore) Load(ctx context.Context) (int, error) {
	snap, err := s.persister.LoadRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("load records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = snap.Records
	if s.records == nil {
		s.records = []types.Record{}
	}
	s.counter = snap.Counter
	for _, r := range s.records {
		if n, ok := s.sequence(r.ID); ok && n > s.counter {
			s.counter = n
		}
	}

	migrated := 0
	for i := range s.records {
		d := s.records[i].Date
		if dates.IsBlank(d) || dates.IsCanonical(d) {
			continue
		}
		if canonical, ok := dates.Reformat(d); ok {
			s.records[i].Date = canonical
			migrated++
		}
	}
	if migrated > 0 {
		if err := s.persister.SaveRecords(ctx, s.snapshot()); err != nil {
			return 0, fmt.Errorf("save migrated dates: %w", err)
		}
	}
	return migrated, nil
}

// Add appends a record built from in. A blank date is stamped with the
// current time.
func (s *RecordStore) Add(ctx context.Context, in types.RecordInput) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added types.Record
	err := s.mutate(ctx, func() error {
		added = s.build(in, dates.NormalizeOrNow(in.Date, s.now()))
		s.records = append(s.records, added)
		return nil
	})
	if err != nil {
		return types.Record{}, err
	}
	return added, nil
}

// List returns a copy of every record in insertion order.
func (s *RecordStore) List() []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Count returns the number of stored records.
func (s *RecordStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Search returns records whose id, date, sender, subject or destination
// contains query, ignoring case. An empty query matches everything.
func (s *RecordStore) Search(query string) []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cloneRecords(s.records)
	}
	out := []types.Record{}
	for _, r := range s.records {
		if matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// DateRange returns records whose date part lies within [start, end].
// Records without a recognizable date never match.
func (s *RecordStore) DateRange(start, end time.Time) []types.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []types.Record{}
	for _, r := range s.records {
		d, ok := dates.DatePart(r.Date)
		if !ok {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *RecordStore) Get(id string) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return types.Record{}, ErrNotFound
	}
	return s.records[i], nil
}

// Update applies the non-nil fields of patch to the record with id.
func (s *RecordStore) Update(ctx context.Context, id string, patch types.RecordPatch) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated types.Record
	err := s.mutate(ctx, func() error {
		i := s.indexOf(id)
		if i < 0 {
			return ErrNotFound
		}
		r := &s.records[i]
		if patch.Sender != nil {
			r.Sender = strings.TrimSpace(*patch.Sender)
		}
		if patch.Subject != nil {
			r.Subject = strings.TrimSpace(*patch.Subject)
		}
		if patch.Destination != nil {
			r.Destination = strings.TrimSpace(*patch.Destination)
		}
		if patch.Date != nil {
			r.Date = dates.Normalize(*patch.Date)
		}
		if patch.Status != nil {
			r.Status = types.NormalizeStatus(*patch.Status)
		}
		updated = *r
		return nil
	})
	if err != nil {
		return types.Record{}, err
	}
	return updated, nil
}

// SetStatus sets status on every listed record and returns how many were
// found. Unknown ids are skipped.
func (s *RecordStore) SetStatus(ctx context.Context, ids []string, status string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status = types.NormalizeStatus(status)
	updated := 0
	err := s.mutate(ctx, func() error {
		for _, id := range ids {
			if i := s.indexOf(id); i >= 0 {
				s.records[i].Status = status
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// Delete removes the record with id. Emptying the store restarts
// numbering at 001.
func (s *RecordStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mutate(ctx, func() error {
		i := s.indexOf(id)
		if i < 0 {
			return ErrNotFound
		}
		s.records = append(s.records[:i:i], s.records[i+1:]...)
		if len(s.records) == 0 {
			s.counter = 0
		}
		return nil
	})
}

// DeleteMany removes every listed record and returns how many existed.
func (s *RecordStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	removed := 0
	err := s.mutate(ctx, func() error {
		kept := make([]types.Record, 0, len(s.records))
		for _, r := range s.records {
			if drop[r.ID] {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		s.records = kept
		if len(s.records) == 0 {
			s.counter = 0
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Replace discards every record, resets the counter and stores records
// under fresh identifiers.
func (s *RecordStore) Replace(ctx context.Context, records []types.Record) ([]types.Record, error) {
	return s.load(ctx, records, true)
}

// AppendAll stores records after the existing ones under fresh identifiers.
func (s *RecordStore) AppendAll(ctx context.Context, records []types.Record) ([]types.Record, error) {
	return s.load(ctx, records, false)
}

func (s *RecordStore) load(ctx context.Context, records []types.Record, replace bool) ([]types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []types.Record
	err := s.mutate(ctx, func() error {
		if replace {
			s.records = []types.Record{}
			s.counter = 0
		}
		added = make([]types.Record, 0, len(records))
		for _, in := range records {
			r := s.build(types.RecordInput{
				Sender:      in.Sender,
				Subject:     in.Subject,
				Destination: in.Destination,
				Status:      in.Status,
			}, dates.Normalize(in.Date))
			s.records = append(s.records, r)
			added = append(added, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Reset removes every record and restarts numbering.
func (s *RecordStore) Reset(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.records)
	err := s.mutate(ctx, func() error {
		s.records = []types.Record{}
		s.counter = 0
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Statistics summarizes the current records.
func (s *RecordStore) Statistics() types.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeStatistics(s.records, s.now())
}

// NextID reports the identifier the next added record will receive.
func (s *RecordStore) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formatID(s.counter + 1)
}

// mutate runs fn and persists the result. Any failure restores the state
// observed before fn ran. Callers hold s.mu.
func (s *RecordStore) mutate(ctx context.Context, fn func() error) error {
	prevRecords := cloneRecords(s.records)
	prevCounter := s.counter

	if err := fn(); err != nil {
		s.records, s.counter = prevRecords, prevCounter
		return err
	}
	if err := s.persister.SaveRecords(ctx, s.snapshot()); err != nil {
		s.records, s.counter = prevRecords, prevCounter
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

func (s *RecordStore) build(in types.RecordInput, date string) types.Record {
	s.counter++
	return types.Record{
		ID:          s.formatID(s.counter),
		Date:        date,
		Sender:      strings.TrimSpace(in.Sender),
		Subject:     strings.TrimSpace(in.Subject),
		Destination: strings.TrimSpace(in.Destination),
		Status:      types.NormalizeStatus(in.Status),
	}
}

func (s *RecordStore) snapshot() Snapshot {
	return Snapshot{Records: cloneRecords(s.records), Counter: s.counter}
}

func (s *RecordStore) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *RecordStore) formatID(n int) string {
	return fmt.Sprintf("%s - %03d", s.prefix, n)
}

// sequence extracts the trailing number of an identifier carrying this
// store's prefix.
func (s *RecordStore) sequence(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, s.prefix+" - ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

func matches(r types.Record, q string) bool {
	for _, field := range []string{r.ID, r.Date, r.Sender, r.Subject, r.Destination} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func cloneRecords(in []types.Record) []types.Record {
	out := make([]types.Record, len(in))
	copy(out, in)
	return out
}
