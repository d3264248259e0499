package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/types"
)

// RecordHandler provides HTTP handlers for records.
type RecordHandler struct {
	recordService *services.RecordService
	userService   *services.UserService
}

// NewRecordHandler constructs a handler with the provided services.
func NewRecordHandler(recordService *services.RecordService, userService *services.UserService) *RecordHandler {
	return &RecordHandler{
		recordService: recordService,
		userService:   userService,
	}
}

// RecordRouter registers record routes on the given router.
func RecordRouter(
	r chi.Router,
	recordService *services.RecordService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewRecordHandler(recordService, userService)

	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListRecords)
	r.Post("/", handler.CreateRecord)
	r.Get("/search", handler.SearchRecords)
	r.Get("/range", handler.RecordsInRange)
	r.Post("/bulk", handler.BulkAction)
	r.Post("/reset", handler.ResetRecords)
	r.Route("/{recordID}", func(r chi.Router) {
		r.Get("/", handler.GetRecord)
		r.Put("/", handler.UpdateRecord)
		r.Delete("/", handler.DeleteRecord)
	})
}

// StatsRouter registers the statistics route on the given router.
func StatsRouter(
	r chi.Router,
	recordService *services.RecordService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewRecordHandler(recordService, userService)
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.Statistics)
}

// ListRecords returns every record in insertion order.
func (h *RecordHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	records, err := h.recordService.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "list records")
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Data: records, Total: len(records)})
}

// CreateRecord adds a record. A blank date is stamped with the current time.
func (h *RecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}

	var req types.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	record, err := h.recordService.Add(r.Context(), user, req)
	if err != nil {
		writeServiceError(w, err, "create record")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// SearchRecords matches q against every text field.
func (h *RecordHandler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	records, err := h.recordService.Search(r.Context(), user, r.URL.Query().Get("q"))
	if err != nil {
		writeServiceError(w, err, "search records")
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Data: records, Total: len(records)})
}

// RecordsInRange returns records dated between start and end inclusive.
func (h *RecordHandler) RecordsInRange(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	query := r.URL.Query()
	records, err := h.recordService.DateRange(r.Context(), user, query.Get("start"), query.Get("end"))
	if err != nil {
		writeServiceError(w, err, "filter records")
		return
	}
	writeJSON(w, http.StatusOK, RecordListResponse{Data: records, Total: len(records)})
}

func (h *RecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	record, err := h.recordService.Get(r.Context(), user, pathParam(r, "recordID"))
	if err != nil {
		writeServiceError(w, err, "load record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// UpdateRecord applies the fields present in the body.
func (h *RecordHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}

	var req types.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	record, err := h.recordService.Update(r.Context(), user, pathParam(r, "recordID"), req)
	if err != nil {
		writeServiceError(w, err, "update record")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *RecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	if err := h.recordService.Delete(r.Context(), user, pathParam(r, "recordID")); err != nil {
		writeServiceError(w, err, "delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkAction marks or deletes several records at once.
func (h *RecordHandler) BulkAction(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}

	var req BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.recordService.Bulk(r.Context(), user, req.Action, req.RecordIDs)
	if err != nil {
		writeServiceError(w, err, "apply bulk action")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ResetRecords deletes every record. Admin only.
func (h *RecordHandler) ResetRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	removed, err := h.recordService.Reset(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "reset records")
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Removed: removed})
}

// Statistics returns counts and breakdowns. Admin only.
func (h *RecordHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	stats, err := h.recordService.Statistics(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type RecordListResponse struct {
	Data  []types.Record `json:"data"`
	Total int            `json:"total"`
}

type BulkRequest struct {
	Action    string   `json:"action"`
	RecordIDs []string `json:"record_ids"`
}

type ResetResponse struct {
	Removed int `json:"removed"`
}
