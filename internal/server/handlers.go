package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/engine"
	"github.com/priyanka/formpilot/backend/internal/repository"
	"github.com/priyanka/formpilot/backend/internal/service"
)

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger  *slog.Logger
	service *service.AutofillService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, svc *service.AutofillService) *APIHandlers {
	return &APIHandlers{
		logger:  logger,
		service: svc,
	}
}

func (h *APIHandlers) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	profile, err := h.service.Profile(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrBadVersion) {
			writeError(w, http.StatusConflict, "stored profile has an unsupported version")
			return
		}
		h.logger.Error("failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) handleProfileField(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload fieldUpdateRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.FieldPath == "" {
		writeError(w, http.StatusBadRequest, "fieldPath is required")
		return
	}

	profile, err := h.service.UpdateField(r.Context(), payload.FieldPath, payload.Value)
	if err != nil {
		if strings.Contains(err.Error(), "unknown profile field") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update field", "error", err, "fieldPath", payload.FieldPath)
		writeError(w, http.StatusInternalServerError, "failed to update field")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) handleProfileFieldPolicy(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload fieldPolicyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.FieldPath == "" || payload.Policy == "" {
		writeError(w, http.StatusBadRequest, "fieldPath and policy are required")
		return
	}

	profile, err := h.service.UpdateFieldPolicy(r.Context(), payload.FieldPath, domain.AutofillPolicy(payload.Policy))
	if err != nil {
		if strings.Contains(err.Error(), "unknown") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update field policy", "error", err, "fieldPath", payload.FieldPath)
		writeError(w, http.StatusInternalServerError, "failed to update field policy")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// handleEntries routes the multi-entry collection operations:
//
//	POST   /profile/entries/{collection}                append a blank entry
//	DELETE /profile/entries/{collection}/{index}        remove the entry
//	POST   /profile/entries/{collection}/{index}/primary mark it primary
//	POST   /profile/entries/{collection}/{index}/label  rename it
func (h *APIHandlers) handleEntries(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/profile/entries/"), "/")
	parts := strings.Split(rest, "/")
	if rest == "" || len(parts) > 3 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	collection := service.EntryCollection(parts[0])

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		profile, id, err := h.service.AddEntry(r.Context(), collection)
		if err != nil {
			h.entryError(w, err, "failed to add entry")
			return
		}
		respondJSON(w, http.StatusCreated, entryResponse{EntryID: id, Profile: profile})

	case len(parts) == 2:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entry index")
			return
		}
		profile, err := h.service.RemoveEntry(r.Context(), collection, index)
		if err != nil {
			h.entryError(w, err, "failed to remove entry")
			return
		}
		respondJSON(w, http.StatusOK, profile)

	case len(parts) == 3 && parts[2] == "primary":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entry index")
			return
		}
		profile, err := h.service.SetPrimaryEntry(r.Context(), collection, index)
		if err != nil {
			h.entryError(w, err, "failed to set primary entry")
			return
		}
		respondJSON(w, http.StatusOK, profile)

	case len(parts) == 3 && parts[2] == "label":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid entry index")
			return
		}
		var payload relabelEntryRequest
		if err := decodeJSON(r, &payload); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		profile, err := h.service.RelabelEntry(r.Context(), collection, index, payload.Label)
		if err != nil {
			h.entryError(w, err, "failed to relabel entry")
			return
		}
		respondJSON(w, http.StatusOK, profile)

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *APIHandlers) entryError(w http.ResponseWriter, err error, fallback string) {
	msg := err.Error()
	if strings.Contains(msg, "unknown entry collection") ||
		strings.Contains(msg, "cannot remove") ||
		strings.Contains(msg, "no entry") ||
		strings.Contains(msg, "label must not") {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	h.logger.Error(fallback, "error", err)
	writeError(w, http.StatusInternalServerError, fallback)
}

func (h *APIHandlers) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := h.service.Settings(r.Context())
		if err != nil {
			h.logger.Error("failed to load settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to load settings")
			return
		}
		respondJSON(w, http.StatusOK, settings)

	case http.MethodPatch:
		var patch repository.SettingsPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		settings, err := h.service.UpdateSettings(r.Context(), patch)
		if err != nil {
			h.logger.Error("failed to update settings", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update settings")
			return
		}
		respondJSON(w, http.StatusOK, settings)

	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch)
	}
}

func (h *APIHandlers) handleCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	formType := domain.FormType(r.URL.Query().Get("formType"))
	result, err := h.service.Completion(r.Context(), formType)
	if err != nil {
		if strings.Contains(err.Error(), "unknown form type") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to compute completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute completion")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *APIHandlers) handleFormTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	selected, err := h.service.SelectedFormTypes(r.Context())
	if err != nil {
		h.logger.Error("failed to load form types", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load form types")
		return
	}
	respondJSON(w, http.StatusOK, formTypesResponse{Selected: selected})
}

func (h *APIHandlers) handleToggleFormType(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload toggleFormTypeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.FormType == "" {
		writeError(w, http.StatusBadRequest, "formType is required")
		return
	}

	selected, active, err := h.service.ToggleFormType(r.Context(), domain.FormType(payload.FormType))
	if err != nil {
		if strings.Contains(err.Error(), "unknown form type") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to toggle form type", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle form type")
		return
	}
	respondJSON(w, http.StatusOK, formTypesResponse{Selected: selected, Active: &active})
}

func (h *APIHandlers) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	blob, err := h.service.Export(r.Context())
	if err != nil {
		h.logger.Error("failed to export profile", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export profile")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="profile.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(blob))
}

func (h *APIHandlers) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload importRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.Profile == nil {
		writeError(w, http.StatusBadRequest, "profile is required")
		return
	}

	profile, err := h.service.Import(r.Context(), string(payload.Profile))
	if err != nil {
		if errors.Is(err, repository.ErrBadVersion) {
			writeError(w, http.StatusBadRequest, "imported profile has a missing or unsupported version")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (h *APIHandlers) handleAutofill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload autofillRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	entryIndex := -1
	if payload.EntryIndex != nil {
		entryIndex = *payload.EntryIndex
	}

	outcome, err := h.service.Fill(r.Context(), service.FillParams{
		HTML:          payload.HTML,
		UserInitiated: payload.UserInitiated,
		EntryIndex:    entryIndex,
	})
	if err != nil {
		h.logger.Error("autofill pass failed", "error", err)
		writeError(w, http.StatusInternalServerError, "autofill pass failed")
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

func (h *APIHandlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload analyzeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), payload.HTML)
	if err != nil {
		h.logger.Error("form analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "form analysis failed")
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

func (h *APIHandlers) handleMatchReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var payload analyzeRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	reports, err := h.service.MatchReport(r.Context(), payload.HTML)
	if err != nil {
		h.logger.Error("match report failed", "error", err)
		writeError(w, http.StatusInternalServerError, "match report failed")
		return
	}
	respondJSON(w, http.StatusOK, matchReportResponse{Fields: reports})
}

// --- Request & Response DTOs ---

type fieldUpdateRequest struct {
	FieldPath string `json:"fieldPath"`
	Value     string `json:"value"`
}

type fieldPolicyRequest struct {
	FieldPath string `json:"fieldPath"`
	Policy    string `json:"policy"`
}

type entryResponse struct {
	EntryID string          `json:"entryId"`
	Profile *domain.Profile `json:"profile"`
}

type formTypesResponse struct {
	Selected []domain.FormType `json:"selected"`
	Active   *bool             `json:"active,omitempty"`
}

type relabelEntryRequest struct {
	Label string `json:"label"`
}

type toggleFormTypeRequest struct {
	FormType string `json:"formType"`
}

type importRequest struct {
	Profile json.RawMessage `json:"profile"`
}

type autofillRequest struct {
	HTML          string `json:"html"`
	UserInitiated bool   `json:"userInitiated"`
	EntryIndex    *int   `json:"entryIndex,omitempty"`
}

type analyzeRequest struct {
	HTML string `json:"html"`
}

type matchReportResponse struct {
	Fields []engine.DebugReport `json:"fields"`
}

// --- Helpers ---

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
