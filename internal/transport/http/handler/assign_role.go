package handler

import (
	"encoding/json"
	"net/http"

	"github.com/occamy/fieldops-api/internal/application/authz"
	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/pkg/validate"
	"github.com/occamy/fieldops-api/internal/transport/http/middleware"
)

// AssignRoleHandler handles the one-shot self-service role selection after a
// first SSO login.
type AssignRoleHandler struct {
	authz authz.Service
}

func NewAssignRoleHandler(svc authz.Service) *AssignRoleHandler {
	return &AssignRoleHandler{authz: svc}
}

func (h *AssignRoleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req domain.AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	user, err := h.authz.AssignRole(r.Context(), claims.UserID, claims.UserID, role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(user))
}
