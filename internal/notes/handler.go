package notes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"markpad/internal/auth"
	"markpad/internal/users"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// ListNotes handles GET /api/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	page := h.parseInt(r.URL.Query().Get("page"), 1)
	result, err := h.svc.ListPage(r.Context(), u.ID, r.URL.Query().Get("age"), page)
	if err != nil {
		h.log.Error("failed to list notes", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, result, http.StatusOK)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	var input NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	note, err := h.svc.Create(r.Context(), u.ID, input)
	if errors.Is(err, ErrInvalidInput) {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.log.Error("failed to create note", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, note, http.StatusCreated)
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	note, err := h.svc.GetByID(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		h.noteError(w, err, "get note")
		return
	}

	h.jsonResponse(w, note, http.StatusOK)
}

// EditNote handles PATCH /api/notes/{id}
func (h *Handler) EditNote(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	var input NoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := h.svc.Edit(r.Context(), u.ID, id, input); err != nil {
		h.noteError(w, err, "edit note")
		return
	}

	h.jsonResponse(w, map[string]string{"id": id}, http.StatusOK)
}

// ArchiveNote handles POST /api/notes/{id}/archive
func (h *Handler) ArchiveNote(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	var input struct {
		IsArchived bool `json:"isArchived"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	id := r.PathValue("id")
	if err := h.svc.SetArchived(r.Context(), u.ID, id, input.IsArchived); err != nil {
		h.noteError(w, err, "archive note")
		return
	}

	h.jsonResponse(w, map[string]string{"id": id}, http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	if err := h.svc.Delete(r.Context(), u.ID, r.PathValue("id")); err != nil {
		h.noteError(w, err, "delete note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteArchived handles DELETE /api/notes
func (h *Handler) DeleteArchived(w http.ResponseWriter, r *http.Request) {
	u := h.requireUser(w, r)
	if u == nil {
		return
	}

	if err := h.svc.DeleteArchived(r.Context(), u.ID); err != nil {
		h.log.Error("failed to delete archived notes", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helper methods ---

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) *users.User {
	u := auth.UserFrom(r.Context())
	if u == nil {
		h.jsonError(w, "unauthorized", http.StatusUnauthorized)
	}
	return u
}

func (h *Handler) noteError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrInvalidID):
		h.jsonError(w, "invalid note id", http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		h.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNoteNotFound):
		h.jsonError(w, "note not found", http.StatusNotFound)
	default:
		h.log.Error("failed to "+action, "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (h *Handler) parseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
