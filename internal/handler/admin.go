package handler

import (
	"log/slog"
	"net/http"

	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/registry"
	"github.com/gatehouse/gatehouse/internal/server/middleware"
)

// AdminHandler serves the administrator registry endpoints.
type AdminHandler struct {
	reg    *registry.Service
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reg *registry.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{reg: reg, logger: logger}
}

// ListAdmins returns the merged administrator registry: persisted directory
// records plus synthesized entries for static superadmins, one record per
// email, sorted by email.
// GET /api/v1/admin
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	admins, err := h.reg.List(r.Context(), id.Email)
	if err != nil {
		status, msg := classifyRegistryError(err)
		if status >= 500 {
			h.logger.Error("list admins failed", "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: admins,
		Meta:     &model.ResponseMeta{Count: len(admins)},
	})
}

// CreateAdmin provisions a credential with the identity provider and writes
// the new administrator record to the directory. Superadmin only.
// POST /api/v1/admin
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req registry.CreateRequest
	if err := readJSON(r, &req); err != nil {
		status, msg := classifyRegistryError(registry.ErrMalformedBody)
		writeError(w, status, msg)
		return
	}

	result, err := h.reg.Create(r.Context(), id.Email, req)
	if err != nil {
		status, msg := classifyRegistryError(err)
		if status >= 500 {
			h.logger.Error("create admin failed", "email", req.Email, "error", err)
		}
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
