package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/identity"
	"github.com/gatehouse/gatehouse/internal/registry"
	"github.com/gatehouse/gatehouse/internal/server/middleware"
)

// SessionHandler serves login, logout, and the authorization probe.
type SessionHandler struct {
	provider *identity.LocalProvider
	reg      *registry.Service
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(provider *identity.LocalProvider, reg *registry.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{provider: provider, reg: reg, logger: logger}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse is the response payload for a successful login.
type loginResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
	SubjectID string `json:"subject_id"`
	Email     string `json:"email"`
}

// Login authenticates an admin and returns a bearer token.
// POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	token, id, err := h.provider.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login failed", "email", req.Email, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	// A credential alone does not grant console access; the account must
	// still be a recognized administrator.
	if err := h.reg.Authorize(r.Context(), id.Email); err != nil {
		status, msg := classifyRegistryError(err)
		if status >= 500 {
			h.logger.Error("post-login authorization failed", "email", id.Email, "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(h.provider.TokenTTL().Seconds()),
		SubjectID: id.SubjectID,
		Email:     id.Email,
	})
}

// Logout invalidates the current session. Tokens are stateless, so this is
// a no-op on the server side; clients discard their token. The optional
// "reason" query parameter ("inactivity" or "logout") is echoed back so the
// login view can show the dedicated inactivity notice.
// DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	reason := r.URL.Query().Get("reason")
	if reason != "inactivity" {
		reason = "logout"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reason":  reason,
	})
}

// Probe is the liveness/authorization check consumed by the protected route
// guard: pass/fail only, no body contract beyond that. Failures are
// propagated, never masked — a masked fault would let the guard keep
// rendering protected content.
// GET /api/v1/auth/probe
func (h *SessionHandler) Probe(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.reg.Authorize(r.Context(), id.Email); err != nil {
		status, msg := classifyRegistryError(err)
		if status >= 500 {
			h.logger.Error("authorization probe failed", "email", id.Email, "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"authorized": true})
}
