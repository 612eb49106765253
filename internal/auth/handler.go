package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"markpad/internal/users"
)

type Handler struct {
	sessions *Manager
	users    users.Store
	hasher   *Hasher
	log      *slog.Logger
}

func NewHandler(sessions *Manager, users users.Store, hasher *Hasher, log *slog.Logger) *Handler {
	return &Handler{sessions: sessions, users: users, hasher: hasher, log: log}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" || c.Password == "" {
		h.jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	digest, err := h.hasher.Hash(c.Password)
	if err != nil {
		h.log.Error("failed to hash password", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	u := &users.User{UserName: c.Username, PasswordHash: digest}
	err = h.users.Insert(r.Context(), u)
	if errors.Is(err, users.ErrUsernameTaken) {
		h.jsonError(w, "the user is already registered", http.StatusConflict)
		return
	}
	if err != nil {
		h.log.Error("failed to create user", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		h.log.Error("failed to create session", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, u, http.StatusCreated)
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	u, err := h.users.FindByName(r.Context(), strings.TrimSpace(c.Username))
	if errors.Is(err, users.ErrUserNotFound) {
		// Same reply as a wrong password so usernames cannot be probed.
		h.jsonError(w, "unknown username or wrong password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.log.Error("failed to look up user", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	if !h.hasher.Verify(c.Password, u.PasswordHash) {
		h.jsonError(w, "unknown username or wrong password", http.StatusUnauthorized)
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		h.log.Error("failed to create session", "error", err)
		h.jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, u, http.StatusOK)
}

// Logout handles POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := h.sessions.Revoke(r.Context(), cookie.Value); err != nil {
			h.log.Error("failed to revoke session", "error", err)
			h.jsonError(w, "internal error", http.StatusInternalServerError)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u := UserFrom(r.Context())
	if u == nil {
		h.jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.jsonResponse(w, u, http.StatusOK)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *users.User) error {
	token, err := h.sessions.Create(r.Context(), u.ID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
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
