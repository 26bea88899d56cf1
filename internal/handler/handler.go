package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"handlemock/internal/codec"
	"handlemock/internal/domain"
	"handlemock/internal/service"
	"handlemock/internal/store"
)

// Handle protocol response codes
const (
	CodeSuccess       = 1
	CodeError         = 2
	CodeServerBusy    = 3
	CodeProtocolError = 4
	CodeNotFound      = 100
	CodeAlreadyExists = 101
)

const defaultMaxBody = 1 << 20

// HandleResponse is the body of handle operations that carry no values
type HandleResponse struct {
	ResponseCode int    `json:"responseCode"`
	Handle       string `json:"handle,omitempty"`
	Message      string `json:"message,omitempty"`
}

// ValuesResponse is the body of a successful handle resolution
type ValuesResponse struct {
	ResponseCode int              `json:"responseCode"`
	Handle       string           `json:"handle"`
	Values       domain.ValueList `json:"values"`
}

// ErrorResponse is used by endpoints outside the handle protocol
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HandleHandler serves the handle REST API
type HandleHandler struct {
	svc          *service.HandleService
	log          *slog.Logger
	maxBodyBytes int64
}

// NewHandleHandler creates a new handle handler
func NewHandleHandler(svc *service.HandleService, logger *slog.Logger) *HandleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HandleHandler{
		svc:          svc,
		log:          logger.With("component", "handler"),
		maxBodyBytes: defaultMaxBody,
	}
}

// SetMaxBodyBytes limits the size of PUT bodies
func (h *HandleHandler) SetMaxBodyBytes(n int64) {
	if n > 0 {
		h.maxBodyBytes = n
	}
}

// Register adds the handler's routes to mux
func (h *HandleHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/handles/{prefix}/{suffix}", h.GetHandle)
	mux.HandleFunc("PUT /api/handles/{prefix}/{suffix}", h.PutHandle)
	mux.HandleFunc("DELETE /api/handles/{prefix}/{suffix}", h.DeleteHandle)
	mux.HandleFunc("GET /hrls/handles/{prefix}", h.ReverseLookup)

	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("POST /api/import/{format}", h.Import)
	mux.HandleFunc("GET /api/journal", h.Journal)
	mux.HandleFunc("GET /api/last-handle", h.LastHandle)
	mux.HandleFunc("GET /healthz", h.Healthz)
}

// GetHandle resolves a handle to its values
func (h *HandleHandler) GetHandle(w http.ResponseWriter, r *http.Request) {
	prefix, suffix := r.PathValue("prefix"), r.PathValue("suffix")
	handle := domain.HandleName(prefix, suffix)

	values, err := h.svc.GetHandle(r.Context(), prefix, suffix)
	if err != nil {
		h.writeStoreError(w, handle, err)
		return
	}
	if values == nil {
		values = domain.ValueList{}
	}

	h.writeJSON(w, ValuesResponse{
		ResponseCode: CodeSuccess,
		Handle:       handle,
		Values:       values,
	}, http.StatusOK)
}

// PutHandle creates a handle, or merges into it when overwrite is set
func (h *HandleHandler) PutHandle(w http.ResponseWriter, r *http.Request) {
	prefix, suffix := r.PathValue("prefix"), r.PathValue("suffix")
	handle := domain.HandleName(prefix, suffix)

	q := r.URL.Query()
	overwrite, _ := strconv.ParseBool(q.Get("overwrite"))
	opts := service.PutOptions{
		Overwrite: overwrite,
		Indices:   q["index"],
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		h.log.Debug("undecodable PUT body", "handle", handle, "err", err)
		h.writeJSON(w, HandleResponse{
			ResponseCode: CodeProtocolError,
			Handle:       handle,
			Message:      domain.ErrInvalidPayload.Error(),
		}, http.StatusBadRequest)
		return
	}

	if _, err := h.svc.PutHandle(r.Context(), prefix, suffix, payload, opts); err != nil {
		h.writeStoreError(w, handle, err)
		return
	}

	h.writeJSON(w, HandleResponse{ResponseCode: CodeSuccess, Handle: handle}, http.StatusOK)
}

// DeleteHandle deletes a handle, or only the values whose index is given
func (h *HandleHandler) DeleteHandle(w http.ResponseWriter, r *http.Request) {
	prefix, suffix := r.PathValue("prefix"), r.PathValue("suffix")
	handle := domain.HandleName(prefix, suffix)

	if _, err := h.svc.Delete(r.Context(), prefix, suffix, r.URL.Query()["index"]); err != nil {
		h.writeStoreError(w, handle, err)
		return
	}

	h.writeJSON(w, HandleResponse{ResponseCode: CodeSuccess, Handle: handle}, http.StatusOK)
}

// ReverseLookup lists handles under a prefix whose values match every
// type=glob query parameter. Every match is returned unless limit is
// given, in which case limit and page paginate the sorted result.
func (h *HandleHandler) ReverseLookup(w http.ResponseWriter, r *http.Request) {
	prefix := r.PathValue("prefix")

	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 0)
	page := max(queryInt(q.Get("page"), 0), 0)

	filters := make(map[string]string, len(q))
	for key, vals := range q {
		if key == "limit" || key == "page" || len(vals) == 0 {
			continue
		}
		filters[key] = vals[len(vals)-1]
	}

	handles, err := h.svc.ReverseLookup(r.Context(), prefix, filters)
	if err != nil {
		h.writeStoreError(w, prefix, err)
		return
	}

	h.writeJSON(w, paginate(handles, limit, page), http.StatusOK)
}

// Export exports the store contents as a seed document
func (h *HandleHandler) Export(w http.ResponseWriter, r *http.Request) {
	c, ok := codec.Lookup(r.PathValue("format"))
	if !ok {
		h.writeError(w, "Unknown format", "supported: "+strings.Join(codec.Formats(), ", "), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export(r.Context(), c, &buf); err != nil {
		h.log.Error("failed to export", "format", c.Format(), "err", err)
		h.writeError(w, "Failed to export", err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", c.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=handles."+c.Format())
	w.Write(buf.Bytes())
}

// Import loads a seed document, merging into existing handles when
// overwrite is set
func (h *HandleHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, ok := codec.Lookup(r.PathValue("format"))
	if !ok {
		h.writeError(w, "Unknown format", "supported: "+strings.Join(codec.Formats(), ", "), http.StatusNotFound)
		return
	}
	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))

	stats, err := h.svc.Import(r.Context(), c, http.MaxBytesReader(w, r.Body, h.maxBodyBytes), overwrite)
	if err != nil {
		h.writeError(w, "Invalid import document", err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, stats, http.StatusOK)
}

// Journal returns recent operations, optionally for a single handle
func (h *HandleHandler) Journal(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := h.svc.RecentOperations(r.Context(), q.Get("handle"), queryInt(q.Get("limit"), 0))
	if errors.Is(err, service.ErrJournalDisabled) {
		h.writeError(w, "Journal disabled", "set journal.path to enable", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to read journal", "err", err)
		h.writeError(w, "Failed to read journal", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, entries, http.StatusOK)
}

// LastHandle returns the most recently created handle
func (h *HandleHandler) LastHandle(w http.ResponseWriter, r *http.Request) {
	handle, err := h.svc.LastHandle(r.Context())
	if err != nil {
		h.log.Error("failed to read last handle", "err", err)
		h.writeError(w, "Failed to read last handle", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{"handle": handle}, http.StatusOK)
}

// Healthz reports liveness
func (h *HandleHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status":   "ok",
		"prefixes": h.svc.Prefixes(r.Context()),
	}, http.StatusOK)
}

// Helper methods

// statusFor maps a store outcome to an HTTP status and protocol code
func statusFor(kind store.Kind) (httpStatus, code int) {
	switch kind {
	case store.KindSuccess, store.KindCreated, store.KindUpdated:
		return http.StatusOK, CodeSuccess
	case store.KindAlreadyExists:
		return http.StatusConflict, CodeAlreadyExists
	case store.KindNotFoundSuffix:
		return http.StatusNotFound, CodeNotFound
	case store.KindNotFoundPrefix:
		return http.StatusBadRequest, CodeNotFound
	case store.KindProtocolError:
		return http.StatusBadRequest, CodeProtocolError
	default:
		return http.StatusInternalServerError, CodeError
	}
}

func (h *HandleHandler) writeStoreError(w http.ResponseWriter, handle string, err error) {
	kind := store.KindOf(err)
	status, code := statusFor(kind)
	if kind == store.KindInternal {
		h.log.Error("unexpected store error", "handle", handle, "err", err)
	}
	h.writeJSON(w, HandleResponse{
		ResponseCode: code,
		Handle:       handle,
		Message:      err.Error(),
	}, status)
}

func (h *HandleHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	writeJSON(w, h.log, data, statusCode)
}

func (h *HandleHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	writeJSON(w, h.log, ErrorResponse{Error: error, Details: details}, statusCode)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode JSON", "err", err)
	}
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// paginate returns page number page of size limit. limit <= 0 disables
// pagination. The result is never nil.
func paginate(items []string, limit, page int) []string {
	if limit <= 0 {
		if items == nil {
			return []string{}
		}
		return items
	}
	if page > len(items)/limit {
		return []string{}
	}
	start := page * limit
	if start >= len(items) {
		return []string{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
