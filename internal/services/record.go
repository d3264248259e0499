package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/dates"
	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/types"
)

// RecordRepository defines the record store operations services rely on.
type RecordRepository interface {
	Add(ctx context.Context, in types.RecordInput) (types.Record, error)
	List() []types.Record
	Count() int
	Search(query string) []types.Record
	DateRange(start, end time.Time) []types.Record
	Get(id string) (types.Record, error)
	Update(ctx context.Context, id string, patch types.RecordPatch) (types.Record, error)
	SetStatus(ctx context.Context, ids []string, status string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	Replace(ctx context.Context, records []types.Record) ([]types.Record, error)
	AppendAll(ctx context.Context, records []types.Record) ([]types.Record, error)
	Reset(ctx context.Context) (int, error)
	Statistics() types.Statistics
}

// LoadMode says whether bulk loads keep or discard existing records.
type LoadMode string

const (
	ModeAppend  LoadMode = "append"
	ModeReplace LoadMode = "replace"
)

// ParseLoadMode maps user input onto a LoadMode; blank input yields def.
func ParseLoadMode(s string, def LoadMode) (LoadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return def, nil
	case string(ModeAppend):
		return ModeAppend, nil
	case string(ModeReplace):
		return ModeReplace, nil
	}
	return "", validationError("mode must be append or replace, got %q", s)
}

// Bulk actions accepted by RecordService.Bulk.
const (
	BulkMarkCompleted = "mark_completed"
	BulkMarkPending   = "mark_pending"
	BulkDelete        = "delete"
)

// RecordService encapsulates record use-cases. Every method checks the
// acting user's role before touching the store.
type RecordService struct {
	repo   RecordRepository
	events *events.Publisher
	logger *logrus.Logger
}

func NewRecordService(repo RecordRepository, publisher *events.Publisher, logger *logrus.Logger) *RecordService {
	return &RecordService{repo: repo, events: publisher, logger: logger}
}

func (s *RecordService) Add(ctx context.Context, actor types.User, in types.RecordInput) (types.Record, error) {
	if err := access.Check(actor.Role, access.OpAddRecord); err != nil {
		return types.Record{}, err
	}
	if err := requireFields(map[string]string{
		"sender":      in.Sender,
		"subject":     in.Subject,
		"destination": in.Destination,
	}); err != nil {
		return types.Record{}, err
	}

	record, err := s.repo.Add(ctx, in)
	if err != nil {
		return types.Record{}, err
	}
	s.logger.WithFields(logrus.Fields{"record_id": record.ID, "user": actor.Username}).Info("record added")
	s.events.Publish(ctx, events.RecordAdded, record)
	return record, nil
}

func (s *RecordService) List(_ context.Context, actor types.User) ([]types.Record, error) {
	if err := access.Check(actor.Role, access.OpListRecords); err != nil {
		return nil, err
	}
	return s.repo.List(), nil
}

// Search never fails for lack of matches; it returns an empty slice.
func (s *RecordService) Search(_ context.Context, actor types.User, query string) ([]types.Record, error) {
	if err := access.Check(actor.Role, access.OpSearchRecords); err != nil {
		return nil, err
	}
	return s.repo.Search(query), nil
}

// DateRange takes inclusive YYYY-MM-DD bounds.
func (s *RecordService) DateRange(_ context.Context, actor types.User, start, end string) ([]types.Record, error) {
	if err := access.Check(actor.Role, access.OpSearchRecords); err != nil {
		return nil, err
	}
	from, err := time.Parse(dates.DateLayout, strings.TrimSpace(start))
	if err != nil {
		return nil, validationError("start date must be YYYY-MM-DD")
	}
	to, err := time.Parse(dates.DateLayout, strings.TrimSpace(end))
	if err != nil {
		return nil, validationError("end date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, validationError("end date is before start date")
	}
	return s.repo.DateRange(from, to), nil
}

func (s *RecordService) Get(_ context.Context, actor types.User, id string) (types.Record, error) {
	if err := access.Check(actor.Role, access.OpListRecords); err != nil {
		return types.Record{}, err
	}
	return s.repo.Get(id)
}

func (s *RecordService) Update(ctx context.Context, actor types.User, id string, patch types.RecordPatch) (types.Record, error) {
	if err := access.Check(actor.Role, access.OpEditRecord); err != nil {
		return types.Record{}, err
	}
	provided := map[string]string{}
	for name, v := range map[string]*string{
		"sender":      patch.Sender,
		"subject":     patch.Subject,
		"destination": patch.Destination,
	} {
		if v != nil {
			provided[name] = *v
		}
	}
	if err := requireFields(provided); err != nil {
		return types.Record{}, err
	}
	if patch.Status != nil && !types.AcceptedStatus(*patch.Status) {
		return types.Record{}, validationError("status must be Pending or Completed")
	}

	record, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return types.Record{}, err
	}
	s.logger.WithFields(logrus.Fields{"record_id": id, "user": actor.Username}).Info("record updated")
	s.events.Publish(ctx, events.RecordUpdated, record)
	return record, nil
}

// SetStatus marks one record Completed or Pending.
func (s *RecordService) SetStatus(ctx context.Context, actor types.User, id, status string) (types.Record, error) {
	return s.Update(ctx, actor, id, types.RecordPatch{Status: &status})
}

func (s *RecordService) Delete(ctx context.Context, actor types.User, id string) error {
	if err := access.Check(actor.Role, access.OpDeleteRecord); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"record_id": id, "user": actor.Username}).Info("record deleted")
	s.events.Publish(ctx, events.RecordDeleted, map[string]string{"id": id})
	return nil
}

// BulkResult reports the outcome of a bulk action.
type BulkResult struct {
	Action   string `json:"action"`
	Affected int    `json:"affected"`
}

// Bulk applies action to every listed record. Deleting requires the
// delete permission; status changes require edit.
func (s *RecordService) Bulk(ctx context.Context, actor types.User, action string, ids []string) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, validationError("no records selected")
	}

	var (
		affected int
		err      error
		notice   = bulkNotice{Action: action, Total: len(ids)}
	)
	switch action {
	case BulkMarkCompleted, BulkMarkPending:
		if err := access.Check(actor.Role, access.OpSetStatus); err != nil {
			return BulkResult{}, err
		}
		status := types.StatusCompleted
		if action == BulkMarkPending {
			status = types.StatusPending
		}
		affected, err = s.repo.SetStatus(ctx, ids, status)
		if err == nil {
			notice.UpdatedRecords = s.existing(ids)
		}
	case BulkDelete:
		if err := access.Check(actor.Role, access.OpDeleteRecord); err != nil {
			return BulkResult{}, err
		}
		present := s.existing(ids)
		affected, err = s.repo.DeleteMany(ctx, ids)
		if err == nil {
			notice.DeletedIDs = make([]string, 0, len(present))
			for _, r := range present {
				notice.DeletedIDs = append(notice.DeletedIDs, r.ID)
			}
		}
	default:
		return BulkResult{}, validationError("unknown bulk action %q", action)
	}
	if err != nil {
		return BulkResult{}, err
	}

	result := BulkResult{Action: action, Affected: affected}
	s.logger.WithFields(logrus.Fields{"action": action, "affected": affected, "user": actor.Username}).Info("bulk action applied")
	for _, r := range notice.UpdatedRecords {
		s.events.Publish(ctx, events.RecordUpdated, r)
	}
	for _, id := range notice.DeletedIDs {
		s.events.Publish(ctx, events.RecordDeleted, map[string]string{"id": id})
	}
	notice.Affected = affected
	s.events.Publish(ctx, events.BulkUpdate, notice)
	return result, nil
}

// bulkNotice is the bulk_update event payload. It carries the changed
// rows so live views can patch them in place.
type bulkNotice struct {
	Action         string         `json:"action"`
	Affected       int            `json:"affected"`
	Total          int            `json:"total"`
	UpdatedRecords []types.Record `json:"updated_records,omitempty"`
	DeletedIDs     []string       `json:"deleted_ids,omitempty"`
}

// existing returns the current copy of every listed record that exists.
func (s *RecordService) existing(ids []string) []types.Record {
	out := make([]types.Record, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if r, err := s.repo.Get(id); err == nil {
			out = append(out, r)
		}
	}
	return out
}

// Reset deletes every record and restarts numbering.
func (s *RecordService) Reset(ctx context.Context, actor types.User) (int, error) {
	if err := access.Check(actor.Role, access.OpReset); err != nil {
		return 0, err
	}
	removed, err := s.repo.Reset(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.WithFields(logrus.Fields{"removed": removed, "user": actor.Username}).Warn("record store reset")
	s.events.Publish(ctx, events.BulkUpdate, BulkResult{Action: "reset", Affected: removed})
	return removed, nil
}

func (s *RecordService) Statistics(_ context.Context, actor types.User) (types.Statistics, error) {
	if err := access.Check(actor.Role, access.OpStatistics); err != nil {
		return types.Statistics{}, err
	}
	return s.repo.Statistics(), nil
}

// load stores records in bulk and announces it. Callers check access.
func (s *RecordService) load(ctx context.Context, records []types.Record, mode LoadMode, source string) ([]types.Record, error) {
	var (
		added []types.Record
		err   error
	)
	if mode == ModeReplace {
		added, err = s.repo.Replace(ctx, records)
	} else {
		added, err = s.repo.AppendAll(ctx, records)
	}
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.BulkUpdate, BulkResult{Action: source + "_" + string(mode), Affected: len(added)})
	return added, nil
}

func requireFields(fields map[string]string) error {
	var missing []string
	for _, name := range []string{"sender", "subject", "destination"} {
		v, ok := fields[name]
		if ok && strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return validationError("%s required", strings.Join(missing, ", "))
	}
	return nil
}

