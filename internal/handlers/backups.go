package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/services"
)

const formFieldBackup = "backup_file"

// BackupHandler creates, lists, downloads and restores backups.
type BackupHandler struct {
	backupService *services.BackupService
	userService   *services.UserService
}

// NewBackupHandler constructs a handler with the provided services.
func NewBackupHandler(backupService *services.BackupService, userService *services.UserService) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
		userService:   userService,
	}
}

// BackupRouter registers backup routes on the given router.
func BackupRouter(
	r chi.Router,
	backupService *services.BackupService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewBackupHandler(backupService, userService)
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/", handler.ListBackups)
	r.Post("/", handler.CreateBackup)
	r.Post("/restore", handler.RestoreBackup)
	r.Get("/{key}", handler.DownloadBackup)
}

func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	result, err := h.backupService.Create(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "create backup")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	backups, err := h.backupService.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "list backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// DownloadBackup serves a stored backup document.
func (h *BackupHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	key := pathParam(r, "key")
	rc, err := h.backupService.Open(r.Context(), user, key)
	if err != nil {
		writeServiceError(w, err, "load backup")
		return
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load backup")
		return
	}
	writeAttachment(w, key, "application/json", body)
}

// RestoreBackup loads an uploaded backup document. Form field "mode" is
// replace (default) or append.
func (h *BackupHandler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	if err := access.Check(user.Role, access.OpRestore); err != nil {
		writeServiceError(w, err, "restore backup")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	mode, err := services.ParseLoadMode(r.FormValue(formFieldMode), services.ModeReplace)
	if err != nil {
		writeServiceError(w, err, "restore backup")
		return
	}

	file, _, err := formFile(r, formFieldBackup)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := h.backupService.Restore(r.Context(), user, &buf, mode)
	if err != nil {
		writeServiceError(w, err, "restore backup")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
