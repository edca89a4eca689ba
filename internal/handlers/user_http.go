package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/middleware"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/models"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/utils"
)

type UserHTTP struct {
	repo repository.UserRepository
}

func NewUserHTTP(r repository.UserRepository) *UserHTTP {
	return &UserHTTP{repo: r}
}

// GET /api/users?q=&role=&limit=&offset=
func (h *UserHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.UserFilter{
			Q:      qv.Get("q"),
			Role:   strings.ToUpper(strings.TrimSpace(qv.Get("role"))),
			Limit:  utils.QueryInt(qv, "limit", 50),
			Offset: utils.QueryInt(qv, "offset", 0),
		}
		users, total, err := h.repo.List(r.Context(), f)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to list users")
			return
		}
		if users == nil {
			users = []models.User{}
		}
		utils.JSON(w, http.StatusOK, map[string]any{"users": users, "total": total})
	}
}

// GET /api/users/me
// The record is created on first sight from the verified token claims,
// so signup through the identity endpoint and profile reads stay
// decoupled. Role defaults to CUSTOMER.
func (h *UserHTTP) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		u, err := h.repo.GetByID(r.Context(), uid)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to retrieve user profile")
			return
		}
		if u == nil {
			email, _ := utils.GetString(r.Context(), middleware.CtxEmail)
			first, _ := utils.GetString(r.Context(), middleware.CtxFirstName)
			last, _ := utils.GetString(r.Context(), middleware.CtxLastName)
			u = &models.User{
				ID:        uid,
				Email:     email,
				FirstName: first,
				LastName:  last,
				Role:      models.RoleCustomer,
				Confirmed: true,
			}
			if err := h.repo.Create(r.Context(), u, ""); err != nil {
				utils.Error(w, http.StatusInternalServerError, "failed to create user profile")
				return
			}
		}
		utils.JSON(w, http.StatusOK, u)
	}
}

// PATCH /api/users/{id}/role
// Admin only (router-enforced). Self-change is rejected here even
// though the UI already disables it; client gating is advisory.
func (h *UserHTTP) UpdateRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		uid, _ := utils.GetString(r.Context(), middleware.CtxUserID)
		if id == uid {
			utils.Error(w, http.StatusBadRequest, "Cannot change your own role")
			return
		}

		var req struct {
			Role string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "invalid request")
			return
		}
		role := strings.ToUpper(strings.TrimSpace(req.Role))
		if !models.ValidRole(role) {
			utils.Error(w, http.StatusBadRequest, "Invalid role. Must be one of: CUSTOMER, TECH, ADMIN")
			return
		}

		u, err := h.repo.UpdateRole(r.Context(), id, role, uid)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to update user role")
			return
		}
		if u == nil {
			utils.Error(w, http.StatusNotFound, "User not found")
			return
		}
		utils.JSON(w, http.StatusOK, u)
	}
}

// GET /api/technicians
// Assignment dropdown data: TECH and ADMIN users, trimmed.
func (h *UserHTTP) Technicians() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.repo.ListByRoles(r.Context(), models.RoleTech, models.RoleAdmin)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "failed to list technicians")
			return
		}
		techs := make([]models.Technician, 0, len(users))
		for i := range users {
			u := &users[i]
			techs = append(techs, models.Technician{
				ID:    u.ID,
				Name:  u.FullName(),
				Email: u.Email,
				Role:  u.Role,
			})
		}
		utils.JSON(w, http.StatusOK, map[string]any{"technicians": techs, "count": len(techs)})
	}
}
