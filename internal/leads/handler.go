package leads

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/leadvett/backend/internal/auth"
	"github.com/leadvett/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the agency routes on protected and the prospect-facing
// routes on public.
func (h *Handler) RegisterRoutes(public, protected *mux.Router) {
	protected.HandleFunc("/forms", h.CreateForm).Methods("POST")
	protected.HandleFunc("/forms", h.ListForms).Methods("GET")
	protected.HandleFunc("/forms/{id}", h.GetForm).Methods("GET")
	protected.HandleFunc("/forms/{id}", h.UpdateForm).Methods("PUT")
	protected.HandleFunc("/forms/{id}/leads", h.ListFormLeads).Methods("GET")

	protected.HandleFunc("/leads/fix-pending", h.FixPending).Methods("POST")
	protected.HandleFunc("/leads/{id}", h.GetLead).Methods("GET")
	protected.HandleFunc("/leads/{id}/reanalyze", h.Reanalyze).Methods("POST")

	public.HandleFunc("/intake/{shareLink}", h.GetIntakeForm).Methods("GET")
	public.HandleFunc("/intake/{shareLink}/submit", h.SubmitLead).Methods("POST")
	public.HandleFunc("/analyze-lead", h.AnalyzeLead).Methods("POST")
}

// ── Forms ───────────────────────────────────────────────

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req models.SaveFormRequest
	if !decodeBody(w, r, &req) {
		return
	}

	form, err := h.service.CreateForm(r.Context(), userID, req)
	if err != nil {
		writeError(w, err, "Failed to create form")
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	forms, err := h.service.ListForms(r.Context(), userID)
	if err != nil {
		writeError(w, err, "Failed to list forms")
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	form, err := h.service.GetForm(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to get form")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	var req models.SaveFormRequest
	if !decodeBody(w, r, &req) {
		return
	}

	form, err := h.service.UpdateForm(r.Context(), userID, id, req)
	if err != nil {
		writeError(w, err, "Failed to update form")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) ListFormLeads(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	leads, err := h.service.ListFormLeads(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

// ── Leads ───────────────────────────────────────────────

func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	lead, err := h.service.GetLead(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Failed to get lead")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) Reanalyze(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := ownerAndID(w, r)
	if !ok {
		return
	}

	lead, err := h.service.Reanalyze(r.Context(), userID, id)
	if err != nil {
		writeError(w, err, "Analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

func (h *Handler) FixPending(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return
	}

	log.Printf("Starting pending leads fix for user %d", userID)
	resp, err := h.service.FixPending(r.Context(), userID)
	if err != nil {
		log.Printf("WARN: fix pending failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	log.Printf("Fix complete: %s", resp.Message)
	writeJSON(w, http.StatusOK, resp)
}

// ── Public intake ───────────────────────────────────────

func (h *Handler) GetIntakeForm(w http.ResponseWriter, r *http.Request) {
	shareLink, ok := pathUUID(w, r, "shareLink")
	if !ok {
		return
	}

	form, err := h.service.FormByShareLink(r.Context(), shareLink)
	if err != nil {
		writeError(w, err, "Failed to load form")
		return
	}
	writeJSON(w, http.StatusOK, form.Public())
}

func (h *Handler) SubmitLead(w http.ResponseWriter, r *http.Request) {
	shareLink, ok := pathUUID(w, r, "shareLink")
	if !ok {
		return
	}

	var req models.SubmitLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lead, err := h.service.SubmitLead(r.Context(), shareLink, req)
	if err != nil {
		writeError(w, err, "Failed to submit form")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"id":      lead.ID,
	})
}

func (h *Handler) AnalyzeLead(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeLeadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	verdict, err := h.service.AnalyzeAnswers(r.Context(), req)
	if err != nil {
		writeError(w, err, "Analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, models.AnalyzeLeadResponse{Success: true, Analysis: verdict})
}

// ── Helpers ─────────────────────────────────────────────

func ownerAndID(w http.ResponseWriter, r *http.Request) (int64, uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return 0, uuid.Nil, false
	}
	id, ok := pathUUID(w, r, "id")
	return userID, id, ok
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors to responses; anything unrecognized is a 500
// with the given message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: verr.Error()})
	case IsNotFound(err):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	default:
		log.Printf("WARN: %s: %v", fallback, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: fallback})
	}
}

// maxBodyBytes caps request bodies, including the unauthenticated intake routes.
const maxBodyBytes = 1 << 20

// decodeBody reads a JSON body of at most maxBodyBytes into dst and writes the
// error response itself when it cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{Error: "Request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
