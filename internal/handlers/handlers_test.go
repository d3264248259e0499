package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgu-records/recordkeeper/config"
	"github.com/lgu-records/recordkeeper/internal/events"
	"github.com/lgu-records/recordkeeper/internal/logging"
	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/storage"
	"github.com/lgu-records/recordkeeper/internal/store"
	"github.com/lgu-records/recordkeeper/types"
)

const testSecret = "test-secret"

type testEnv struct {
	router  chi.Router
	hub     *events.Hub
	records *store.RecordStore
	users   *services.UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	logger := logging.Discard()

	recordStore := store.NewRecordStore(store.NewJSONRecordFile(filepath.Join(dir, "records.json")), "")
	_, err := recordStore.Load(ctx)
	require.NoError(t, err)
	userStore := store.NewUserStore(store.NewJSONUserFile(filepath.Join(dir, "users.json")))
	require.NoError(t, userStore.Load(ctx))

	objects, err := storage.Open(ctx, config.StorageConfig{Backend: "local", LocalDir: filepath.Join(dir, "backups")})
	require.NoError(t, err)

	recordService := services.NewRecordService(recordStore, nil, logger)
	userService := services.NewUserService(userStore, logger)
	_, err = userService.EnsureDefaults(ctx)
	require.NoError(t, err)
	transferService := services.NewTransferService(recordService, logger)
	backupService := services.NewBackupService(recordService, objects, nil, "", logger)
	hub := events.NewHub(logger)

	auth := RequireAuth(testSecret)
	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	r.Route("/auth", func(r chi.Router) { AuthRouter(r, userService, testSecret) })
	r.Route("/records", func(r chi.Router) { RecordRouter(r, recordService, userService, auth) })
	r.Route("/stats", func(r chi.Router) { StatsRouter(r, recordService, userService, auth) })
	r.Route("/export", func(r chi.Router) { ExportRouter(r, transferService, userService, auth) })
	r.Route("/import", func(r chi.Router) { ImportRouter(r, transferService, userService, auth) })
	r.Route("/backups", func(r chi.Router) { BackupRouter(r, backupService, userService, auth) })
	r.Route("/events", func(r chi.Router) { EventRouter(r, hub, userService, auth) })

	return &testEnv{router: r, hub: hub, records: recordStore, users: userService}
}

func (e *testEnv) token(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, path, token, field, filename, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func recordPath(id string) string {
	return "/records/" + url.PathEscape(id)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_LoginAndMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := env.token(t, "admin", "admin123")
	rec = env.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "admin", me["username"])
	assert.NotContains(t, me, "password_hash")

	rec = env.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/auth/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := issueToken("ghost", []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/auth/me", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_PasswordsAndUsers(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	rec := env.do(t, http.MethodPost, "/auth/password", userToken, ChangePasswordRequest{
		CurrentPassword: "user123", NewPassword: "a", ConfirmPassword: "b",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/password", userToken, ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "next-pass", ConfirmPassword: "next-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/password", userToken, ChangePasswordRequest{
		CurrentPassword: "user123", NewPassword: "next-pass", ConfirmPassword: "next-pass",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	env.token(t, "user", "next-pass")

	rec = env.do(t, http.MethodPost, "/auth/users", userToken, AddUserRequest{Username: "clerk", Password: "pw"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/users", adminToken, AddUserRequest{Username: "clerk", Password: "pw"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(t, http.MethodPost, "/auth/users", adminToken, AddUserRequest{Username: "clerk", Password: "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/auth/users/clerk/password", adminToken, SetPasswordRequest{Password: "reset"})
	assert.Equal(t, http.StatusOK, rec.Code)
	env.token(t, "clerk", "reset")

	rec = env.do(t, http.MethodGet, "/auth/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.User](t, rec), 3)
}

func TestRecords_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	rec := env.do(t, http.MethodGet, "/records", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{Sender: "Treasury", Subject: "", Destination: "Mayor"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{
		Sender: "Treasury", Subject: "Budget", Destination: "Mayor", Date: "08.01.2025",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[types.Record](t, rec)
	assert.Equal(t, "MAYOR'S OFFICE - 001", created.ID)
	assert.Equal(t, "2025-08-01", created.Date)
	assert.Equal(t, types.StatusPending, created.Status)

	rec = env.do(t, http.MethodGet, recordPath(created.ID), userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode[types.Record](t, rec))

	status := "Done"
	rec = env.do(t, http.MethodPut, recordPath(created.ID), userToken, types.RecordPatch{Status: &status})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.StatusCompleted, decode[types.Record](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/records/search?q=budget", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[RecordListResponse](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/records/search?q=nothing", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"data":[],"total":0}`, strings.TrimSpace(rec.Body.String()))

	rec = env.do(t, http.MethodGet, "/records/range?start=2025-08-01&end=2025-08-31", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[RecordListResponse](t, rec).Total)

	rec = env.do(t, http.MethodGet, "/records/range?start=yesterday&end=2025-08-31", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, recordPath(created.ID), userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, recordPath(created.ID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, recordPath(created.ID), userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecords_BulkResetAndStats(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	var ids []string
	for _, sender := range []string{"A", "B", "C"} {
		rec := env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{Sender: sender, Subject: "s", Destination: "d"})
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[types.Record](t, rec).ID)
	}

	rec := env.do(t, http.MethodPost, "/records/bulk", userToken, BulkRequest{Action: services.BulkMarkCompleted, RecordIDs: ids[:2]})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[services.BulkResult](t, rec).Affected)

	rec = env.do(t, http.MethodPost, "/records/bulk", userToken, BulkRequest{Action: services.BulkDelete, RecordIDs: ids})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/stats", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[types.Statistics](t, rec)
	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 2, stats.CompletedCount)
	assert.InDelta(t, 66.7, stats.CompletionRate, 0.001)

	rec = env.do(t, http.MethodPost, "/records/reset", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = env.do(t, http.MethodPost, "/records/reset", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[ResetResponse](t, rec).Removed)
	assert.Zero(t, env.records.Count())
}

func TestTransfer_ExportAndImport(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	rec := env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{Sender: "Treasury", Subject: "Budget", Destination: "Mayor", Date: "2025-01-02"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/export/csv", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="records_export_`)
	assert.Contains(t, rec.Body.String(), "id,date,sender,subject,destination,status")

	rec = env.do(t, http.MethodGet, "/export/pdf", userToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/export/template", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "records_import_template.xlsx")

	csv := "sender,subject,to\nHealth,Vaccines,Council\n,orphan,x\n"
	rec = env.upload(t, "/import", userToken, "file", "batch.csv", csv, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.upload(t, "/import", adminToken, "file", "batch.csv", csv, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[services.ImportResult](t, rec)
	assert.Equal(t, services.ModeAppend, result.Mode)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, result.Total)

	rec = env.upload(t, "/import", adminToken, "file", "batch.csv", "sender,subject\nA,a\n", map[string]string{"mode": "replace"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "destination")

	rec = env.upload(t, "/import", adminToken, "file", "batch.csv", csv, map[string]string{"mode": "merge"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.upload(t, "/import", adminToken, "other", "batch.csv", csv, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, env.records.Count())
}

func TestBackups_CreateDownloadRestore(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	rec := env.do(t, http.MethodPost, "/backups", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{Sender: "Treasury", Subject: "Budget", Destination: "Mayor"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/backups", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/backups", adminToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	backup := decode[types.BackupResult](t, rec)
	assert.Equal(t, 1, backup.Info.TotalRecords)

	rec = env.do(t, http.MethodGet, "/backups", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]storage.ObjectInfo](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/backups/"+backup.Key, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	document := rec.Body.String()
	assert.Contains(t, document, `"backup_info"`)

	rec = env.do(t, http.MethodGet, "/backups/backup_19990101_000000.json", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/records", userToken, types.RecordInput{Sender: "Extra", Subject: "x", Destination: "y"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.upload(t, "/backups/restore", adminToken, "backup_file", backup.Key, document, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	restored := decode[services.RestoreResult](t, rec)
	assert.Equal(t, services.ModeReplace, restored.Mode)
	assert.Equal(t, 1, restored.Restored)
	assert.Equal(t, 1, env.records.Count())

	rec = env.upload(t, "/backups/restore", adminToken, "backup_file", "bad.json", `{"records": []}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploads_RoleCheckedBeforeBody(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.token(t, "user", "user123")
	adminToken := env.token(t, "admin", "admin123")

	for _, path := range []string{"/import", "/backups/restore"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, userToken, map[string]string{"not": "multipart"})
			assert.Equal(t, http.StatusForbidden, rec.Code)

			rec = env.do(t, http.MethodPost, path, adminToken, map[string]string{"not": "multipart"})
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "invalid multipart form")
		})
	}
}
