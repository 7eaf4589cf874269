package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/karuwa-takeaway/internal/domain/user"
)

type contextKey int

const claimsKey contextKey = iota

// claimsFrom returns the verified token claims placed by RequireAuth.
func claimsFrom(ctx context.Context) (*user.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*user.Claims)
	return c, ok
}

// RequireAuth verifies the Bearer token and stores its claims in the request
// context. Requests without a valid token get 401.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errors.New("authorization header required")
	}
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		return "", errors.New("bearer token required")
	}
	return token, nil
}

// loginRequest is the POST /api/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: viewUser(u)})
}

// changePasswordRequest is the POST /api/admin/change-password body.
type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword updates the calling user's own password after verifying the
// current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.NewPassword) == "" {
		writeError(w, http.StatusBadRequest, "new password is required")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
