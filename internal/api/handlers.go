// Package api exposes HTTP handlers for the healix backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/CHIDI00/healix/internal/auth"
	"github.com/CHIDI00/healix/internal/domain"
	"github.com/CHIDI00/healix/internal/observability"
	"github.com/CHIDI00/healix/internal/persistence"
)

// ContextResolver produces health-context text blocks.
type ContextResolver interface {
	ContextForQuery(ctx context.Context, tenantID, userID, query string) (string, error)
	ComprehensiveContext(ctx context.Context, tenantID, userID string) (string, error)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	resolver  ContextResolver
	assistant AssistantService
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, resolver ContextResolver, assistant AssistantService) *Handler {
	return &Handler{service: service, resolver: resolver, assistant: assistant}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/records/", h.records)
	mux.HandleFunc("/v1/context", h.healthContext)
	mux.HandleFunc("/v1/contacts", h.contacts)
	mux.HandleFunc("/v1/alerts", h.raiseAlert)
	mux.HandleFunc("/v1/assistant/", h.assistantRoutes)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// records dispatches /v1/records/{category} and /v1/records/{category}/latest.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/records/")
	segment, tail, _ := strings.Cut(rest, "/")

	category, ok := domain.ParseCategory(segment)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "unknown record category")
		return
	}

	switch {
	case tail == "" && r.Method == http.MethodPost:
		h.createRecord(w, r, category)
	case tail == "" && r.Method == http.MethodGet:
		h.listRecords(w, r, category)
	case tail == "latest" && r.Method == http.MethodGet:
		h.latestRecord(w, r, category)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request, category domain.Category) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:write required")
		return
	}

	tenantID := claims.TenantID
	userID := claims.UserID()

	var view interface{}
	var err error
	switch category {
	case domain.CategoryVitals:
		var req VitalsRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.VitalsRecord
			rec, err = h.service.AddVitals(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toVitalsView(*rec)
			}
		}
	case domain.CategoryPhysical:
		var req PhysicalRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.PhysicalRecord
			rec, err = h.service.AddPhysical(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toPhysicalView(*rec)
			}
		}
	case domain.CategoryFitness:
		var req FitnessRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.FitnessRecord
			rec, err = h.service.AddFitness(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toFitnessView(*rec)
			}
		}
	case domain.CategoryNutrition:
		var req NutritionRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.NutritionRecord
			rec, err = h.service.AddNutrition(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toNutritionView(*rec)
			}
		}
	case domain.CategorySleep:
		var req SleepRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.SleepRecord
			rec, err = h.service.AddSleep(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toSleepView(*rec)
			}
		}
	case domain.CategoryReproductiveHealth:
		var req ReproductiveHealthRequest
		if err = decodeAndValidate(r, &req); err == nil {
			var rec *domain.ReproductiveHealthRecord
			rec, err = h.service.AddReproductiveHealth(r.Context(), req.toRecord(tenantID, userID))
			if rec != nil {
				view = toReproductiveHealthView(*rec)
			}
		}
	}

	if err != nil {
		var vErr validationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, "validation_failed", vErr.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request, category domain.Category) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthRead) && !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:read required")
		return
	}

	tenantID := claims.TenantID
	userID := claims.UserID()

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	items, next, err := h.listCategory(r.Context(), category, tenantID, userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ListRecordsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) listCategory(ctx context.Context, category domain.Category, tenantID, userID string, cursor *domain.Cursor, limit int) ([]interface{}, *domain.Cursor, error) {
	switch category {
	case domain.CategoryVitals:
		recs, next, err := h.service.ListVitals(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toVitalsView), next, err
	case domain.CategoryPhysical:
		recs, next, err := h.service.ListPhysical(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toPhysicalView), next, err
	case domain.CategoryFitness:
		recs, next, err := h.service.ListFitness(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toFitnessView), next, err
	case domain.CategoryNutrition:
		recs, next, err := h.service.ListNutrition(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toNutritionView), next, err
	case domain.CategorySleep:
		recs, next, err := h.service.ListSleep(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toSleepView), next, err
	case domain.CategoryReproductiveHealth:
		recs, next, err := h.service.ListReproductiveHealth(ctx, tenantID, userID, cursor, limit)
		return collect(recs, toReproductiveHealthView), next, err
	}
	return nil, nil, errors.New("unknown category")
}

func (h *Handler) latestRecord(w http.ResponseWriter, r *http.Request, category domain.Category) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthRead) && !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:read required")
		return
	}

	items, _, err := h.listCategory(r.Context(), category, claims.TenantID, claims.UserID(), nil, 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if len(items) == 0 {
		writeError(w, http.StatusNotFound, "not_found", "no records for category")
		return
	}
	writeJSON(w, http.StatusOK, items[0])
}

// healthContext serves GET /v1/context. With ?q= the response is scoped to
// the matched categories; without it the full context is returned.
func (h *Handler) healthContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthRead) && !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:read required")
		return
	}

	query := r.URL.Query().Get("q")

	var block string
	var err error
	if query == "" {
		block, err = h.resolver.ComprehensiveContext(r.Context(), claims.TenantID, claims.UserID())
		observability.RecordContextResolution("comprehensive")
	} else {
		block, err = h.resolver.ContextForQuery(r.Context(), claims.TenantID, claims.UserID(), query)
		observability.RecordContextResolution("query")
	}
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "store_unavailable", "health data store unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ContextResponse{Query: query, Context: block})
}

func (h *Handler) contacts(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	switch r.Method {
	case http.MethodPost:
		if !claims.HasScope(auth.ScopeHealthWrite) {
			writeError(w, http.StatusForbidden, "forbidden", "scope health:write required")
			return
		}
		var req ContactRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		contact, err := h.service.AddContact(r.Context(), domain.EmergencyContact{
			TenantID: claims.TenantID,
			UserID:   claims.UserID(),
			Name:     req.Name,
			Email:    req.Email,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toContactView(*contact))

	case http.MethodGet:
		if !claims.HasScope(auth.ScopeHealthRead) && !claims.HasScope(auth.ScopeHealthWrite) {
			writeError(w, http.StatusForbidden, "forbidden", "scope health:read required")
			return
		}
		contacts, err := h.service.ListContacts(r.Context(), claims.TenantID, claims.UserID())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
			return
		}
		views := make([]ContactView, 0, len(contacts))
		for _, c := range contacts {
			views = append(views, toContactView(c))
		}
		writeJSON(w, http.StatusOK, map[string][]ContactView{"items": views})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) raiseAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeHealthWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope health:write required")
		return
	}

	var req AlertRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	alert, err := h.service.RaiseAlert(r.Context(), claims.TenantID, claims.UserID(), req.Reason, req.Urgency)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, AlertView{
		AlertID:  alert.ID,
		Reason:   alert.Reason,
		Urgency:  alert.Urgency,
		RaisedAt: alert.RaisedAt,
	})
}

type validator interface {
	Validate() error
}

// validationError distinguishes bad input from downstream failures.
type validationError struct {
	err error
}

func (e validationError) Error() string { return e.err.Error() }

func decodeAndValidate(r *http.Request, req validator) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return validationError{errors.New("unable to parse body")}
	}
	if err := req.Validate(); err != nil {
		return validationError{err}
	}
	return nil
}

func collect[T, V any](recs []T, view func(T) V) []interface{} {
	items := make([]interface{}, 0, len(recs))
	for _, rec := range recs {
		items = append(items, view(rec))
	}
	return items
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
