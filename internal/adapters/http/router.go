package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/filsalgado/simpleRGN/internal/application"
	"github.com/filsalgado/simpleRGN/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	actorHeader       = "X-Actor-ID"
	actorParishHeader = "X-Actor-Parish-ID"
)

type contextKey string

const actorKey contextKey = "actor"

type Options struct {
	Logger      logrus.FieldLogger
	MetricsPath string
	Metrics     http.Handler
}

type Handler struct {
	service *application.RecordService
	log     logrus.FieldLogger
}

func NewRouter(service *application.RecordService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	h := &Handler{service: service, log: log}

	r := chi.NewRouter()
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	if opts.Metrics != nil && opts.MetricsPath != "" {
		r.Method(http.MethodGet, opts.MetricsPath, opts.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(requireActor)
		api.Get("/records", h.handleListRecords)
		api.Post("/records", h.handleCreateRecord)
		api.Get("/records/{id}", h.handleGetRecord)
		api.Patch("/records/{id}", h.handleUpdateRecord)
		api.Delete("/records/{id}", h.handleDeleteRecord)
	})

	return r
}

// requireActor reads the acting user that the upstream auth layer resolved.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseRequiredUint(r.Header.Get(actorHeader), actorHeader)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
			return
		}
		parishID, err := parseOptionalUint(r.Header.Get(actorParishHeader), actorParishHeader)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		actor := domain.Actor{UserID: userID, ParishID: parishID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

func actorFromContext(ctx context.Context) domain.Actor {
	actor, _ := ctx.Value(actorKey).(domain.Actor)
	return actor
}

func (h *Handler) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req application.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	id, err := h.service.CreateRecord(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

func (h *Handler) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRequiredUint(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	var req application.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if err := h.service.UpdateRecord(r.Context(), actorFromContext(r.Context()), id, req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRequiredUint(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	record, err := h.service.GetRecord(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := parseRequiredUint(chi.URLParam(r, "id"), "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if err := h.service.DeleteRecord(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := application.RecordFilter{
		Type:      strings.TrimSpace(q.Get("type")),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      parseIntDefault(q.Get("page"), 1),
		Limit:     parseIntDefault(q.Get("limit"), 0),
	}
	parishID, err := parseOptionalUint(q.Get("parish"), "parish")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	filter.ParishID = parishID

	page, err := h.service.ListRecords(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.log.WithError(err).WithField("request_id", requestIDFromContext(r.Context()))
	if status >= http.StatusInternalServerError {
		entry.Error("record request failed")
	} else {
		entry.Debug("record request rejected")
	}
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func parseRequiredUint(raw string, field string) (uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("%s must be a positive integer", field)
	}
	return uint(parsed), nil
}

func parseOptionalUint(raw string, field string) (*uint, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", field)
	}
	v := uint(parsed)
	return &v, nil
}

func parseIntDefault(raw string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
