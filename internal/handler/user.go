package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/karuwa-takeaway/internal/domain/user"
)

type userView struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLogin   *time.Time `json:"lastLogin"`
}

type userRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Email       string   `json:"email"`
	FullName    string   `json:"fullName"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
}

// ListUsers returns all staff accounts, without password hashes.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	views := make([]userView, len(users))
	for i := range users {
		views[i] = viewUser(&users[i])
	}
	writeJSON(w, http.StatusOK, views)
}

// CreateUser stores a new staff account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := userFromRequest(&req)
	id, err := h.auth.CreateUser(r.Context(), u, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	u.ID = id

	writeJSON(w, http.StatusCreated, viewUser(u))
}

// UpdateUser rewrites a staff account; a non-empty password field also resets
// the password.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req userRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u := userFromRequest(&req)
	u.ID = id
	if err := h.auth.UpdateUser(r.Context(), u, req.Password); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, viewUser(u))
}

// DeleteUser removes a staff account. The seeded admin is protected.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.auth.DeleteUser(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func userFromRequest(req *userRequest) *user.User {
	perms := make([]user.Permission, len(req.Permissions))
	for i, p := range req.Permissions {
		perms[i] = user.Permission(p)
	}
	return &user.User{
		Username:    req.Username,
		Email:       req.Email,
		FullName:    req.FullName,
		Role:        user.Role(req.Role),
		Permissions: perms,
		IsActive:    req.IsActive,
	}
}

func viewUser(u *user.User) userView {
	perms := make([]string, len(u.Permissions))
	for i, p := range u.Permissions {
		perms[i] = string(p)
	}
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        string(u.Role),
		Permissions: perms,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
	}
}
