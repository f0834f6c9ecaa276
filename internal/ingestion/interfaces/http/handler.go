package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"medidas-cloud/internal/audit"
	"medidas-cloud/internal/auth"
	ingestapp "medidas-cloud/internal/ingestion/application"
	ingestion "medidas-cloud/internal/ingestion/domain"
	"medidas-cloud/internal/ingestion/parse"
)

// Handler provides ingestion HTTP endpoints.
type Handler struct {
	service        *ingestapp.Service
	auditLog       audit.Logger
	maxUploadBytes int64
}

// NewHandler constructs a handler.
func NewHandler(service *ingestapp.Service, auditLog audit.Logger, maxUploadBytes int64) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ingestion handler: nil service")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{service: service, auditLog: auditLog, maxUploadBytes: maxUploadBytes}, nil
}

// ServeHTTP handles /api/v1/ingestion/files and subroutes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/ingestion/files":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleUpload(w, r)
		case http.MethodDelete:
			h.handlePurge(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/ingestion/files/"):
		h.handleProcess(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type fileResponse struct {
	ID           int64      `json:"id"`
	EmpresaID    int64      `json:"empresa_id"`
	Tipo         string     `json:"tipo"`
	Anio         int        `json:"anio"`
	Mes          int        `json:"mes"`
	Filename     string     `json:"filename"`
	Status       string     `json:"status"`
	RowsOK       int        `json:"rows_ok"`
	RowsError    int        `json:"rows_error"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toFileResponse(f *ingestion.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		EmpresaID:    f.EmpresaID,
		Tipo:         f.Tipo,
		Anio:         f.Anio,
		Mes:          f.Mes,
		Filename:     f.Filename,
		Status:       f.Status,
		RowsOK:       f.RowsOK,
		RowsError:    f.RowsError,
		ErrorMessage: f.ErrorMessage,
		ProcessedAt:  f.ProcessedAt,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	tipo := r.FormValue("tipo")
	if tipo == "" {
		http.Error(w, "tipo is required", http.StatusBadRequest)
		return
	}
	empresaID, err := strconv.ParseInt(r.FormValue("empresa_id"), 10, 64)
	if err != nil || empresaID <= 0 {
		http.Error(w, "empresa_id must be a positive integer", http.StatusBadRequest)
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer part.Close()

	file, err := h.service.Upload(r.Context(), tenantID, empresaID, auth.UserIDFromContext(r.Context()), tipo, header.Filename, part)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.logAudit(r, "ingestion.upload", strconv.FormatInt(file.ID, 10), empresaID, map[string]any{
		"tipo":     file.Tipo,
		"filename": file.Filename,
		"anio":     file.Anio,
		"mes":      file.Mes,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toFileResponse(file))
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/ingestion/files/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "process" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	fileID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	file, err := h.service.Process(r.Context(), tenantID, fileID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	h.logAudit(r, "ingestion.process", strconv.FormatInt(file.ID, 10), file.EmpresaID, map[string]any{
		"tipo":   file.Tipo,
		"status": file.Status,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toFileResponse(file))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	files, err := h.service.List(r.Context(), tenantID, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	result := make([]fileResponse, 0, len(files))
	for _, f := range files {
		result = append(result, toFileResponse(f))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == 0 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	filter, err := filterFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Purge(r.Context(), tenantID, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.logAudit(r, "ingestion.purge", "", 0, map[string]any{
		"deleted_files":           result.DeletedFiles,
		"deleted_medidas_general": result.DeletedMedidasGeneral,
		"deleted_medidas_ps":      result.DeletedMedidasPS,
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func filterFromQuery(r *http.Request) (ingestion.Filter, error) {
	var filter ingestion.Filter
	query := r.URL.Query()

	if raw := query.Get("empresa_id"); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, errors.New("empresa_id must be an integer")
		}
		filter.EmpresaID = &value
	}
	if raw := query.Get("tipo"); raw != "" {
		tipo := strings.ToUpper(raw)
		filter.Tipo = &tipo
	}
	if raw := query.Get("status"); raw != "" {
		status := raw
		filter.Status = &status
	}
	if raw := query.Get("anio"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			return filter, errors.New("anio must be an integer")
		}
		filter.Anio = &value
	}
	if raw := query.Get("mes"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 || value > 12 {
			return filter, errors.New("mes must be an integer in 1..12")
		}
		filter.Mes = &value
	}
	return filter, nil
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingestion.ErrFileNotFound):
		http.Error(w, "file not found", http.StatusNotFound)
	case errors.Is(err, ingestion.ErrNotProcessable):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ingestion.ErrValidation),
		errors.Is(err, ingestion.ErrUnsupportedType),
		errors.Is(err, ingestion.ErrNoStorageKey),
		errors.Is(err, parse.ErrParse):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) logAudit(r *http.Request, action, resourceID string, empresaID int64, metadata map[string]any) {
	if h.auditLog == nil {
		return
	}
	payload, _ := json.Marshal(metadata)
	entry := audit.Entry{
		TenantID:     auth.TenantIDFromContext(r.Context()),
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: "ingestion_file",
		ResourceID:   resourceID,
		EmpresaID:    empresaID,
		Metadata:     payload,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	_ = h.auditLog.Log(r.Context(), entry)
}
