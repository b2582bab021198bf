package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/occamy/fieldops-api/internal/application/authz"
	"github.com/occamy/fieldops-api/internal/domain"
	"github.com/occamy/fieldops-api/internal/pkg/validate"
	"github.com/occamy/fieldops-api/internal/transport/http/middleware"
)

const defaultPageSize = 25

type userLister interface {
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

// UserHandler handles the admin user-management endpoints. Role checks go
// through the authorization service, which re-reads roles from storage.
type UserHandler struct {
	users userLister
	authz authz.Service
}

func NewUserHandler(users userLister, authzSvc authz.Service) *UserHandler {
	return &UserHandler{users: users, authz: authzSvc}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if _, err := h.authz.RequireRole(r.Context(), claims.UserID, domain.RoleAdmin); err != nil {
		httpError(w, err)
		return
	}

	limit := int32(defaultPageSize)
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = int32(n)
		}
	}
	users, next, err := h.users.ScanPage(r.Context(), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		httpError(w, err)
		return
	}

	data := make([]SafeUser, 0, len(users))
	for i := range users {
		data = append(data, *toSafeUser(&users[i]))
	}
	writeJSON(w, http.StatusOK, PaginatedUsersEnvelope{Data: data, NextCursor: next})
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.authz.AssignRole(r.Context(), claims.UserID, chi.URLParam(r, "id"), role)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSafeUser(user))
}
