package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lgu-records/recordkeeper/internal/access"
	"github.com/lgu-records/recordkeeper/internal/services"
	"github.com/lgu-records/recordkeeper/internal/transfer"
)

const (
	maxMultipartMemory = 32 << 20
	maxUploadBytes     = 64 << 20
	formFieldFile      = "file"
	formFieldMode      = "mode"
	templateFilename   = "records_import_template.xlsx"
)

// TransferHandler serves exports, the import template and imports.
type TransferHandler struct {
	transferService *services.TransferService
	userService     *services.UserService
}

// NewTransferHandler constructs a handler with the provided services.
func NewTransferHandler(transferService *services.TransferService, userService *services.UserService) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		userService:     userService,
	}
}

// ExportRouter registers export routes on the given router.
func ExportRouter(
	r chi.Router,
	transferService *services.TransferService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTransferHandler(transferService, userService)
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Get("/template", handler.Template)
	r.Get("/{format}", handler.Export)
}

// ImportRouter registers the import route on the given router.
func ImportRouter(
	r chi.Router,
	transferService *services.TransferService,
	userService *services.UserService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewTransferHandler(transferService, userService)
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}
	r.Post("/", handler.Import)
}

// Export streams every record as a file download.
func (h *TransferHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	format, err := transfer.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeServiceError(w, err, "export records")
		return
	}

	var buf bytes.Buffer
	filename, err := h.transferService.Export(r.Context(), user, format, &buf)
	if err != nil {
		writeServiceError(w, err, "export records")
		return
	}
	writeAttachment(w, filename, format.ContentType(), buf.Bytes())
}

// Template serves the xlsx import template.
func (h *TransferHandler) Template(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.transferService.Template(r.Context(), user, &buf); err != nil {
		writeServiceError(w, err, "build template")
		return
	}
	writeAttachment(w, templateFilename, transfer.FormatExcel.ContentType(), buf.Bytes())
}

// Import loads records from an uploaded file. Form field "mode" is append
// (default) or replace.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := actor(w, r, h.userService)
	if !ok {
		return
	}
	if err := access.Check(user.Role, access.OpImport); err != nil {
		writeServiceError(w, err, "import records")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	mode, err := services.ParseLoadMode(r.FormValue(formFieldMode), services.ModeAppend)
	if err != nil {
		writeServiceError(w, err, "import records")
		return
	}

	file, header, err := formFile(r, formFieldFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	result, err := h.transferService.Import(r.Context(), user, file, header.Filename, mode)
	if err != nil {
		writeServiceError(w, err, "import records")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, fmt.Errorf("no file uploaded in field %q", field)
		}
		return nil, nil, fmt.Errorf("invalid file upload: %v", err)
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil, fmt.Errorf("no file selected")
	}
	return file, header, nil
}

func writeAttachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, bytes.NewReader(body))
}
