package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// adminUsername is the seeded account that cannot be deleted.
const adminUsername = "admin"

// Claims is the typed JWT payload issued on login.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Auth issues and validates session tokens and owns account lifecycle rules.
type Auth struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration

	now func() time.Time
}

// NewAuth creates an Auth service signing tokens with the given secret.
func NewAuth(repo Repository, secret []byte, tokenTTL time.Duration) *Auth {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Auth{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// HashPassword returns a bcrypt hash of the plain-text password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Login verifies credentials against the active account and returns the user
// with a signed session token. Inactive accounts cannot log in.
func (a *Auth) Login(ctx context.Context, username, password string) (*User, string, error) {
	u, err := a.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "lookup user")
	}
	if !u.IsActive || !CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := a.issueToken(u)
	if err != nil {
		return nil, "", errors.Wrap(err, "sign token")
	}

	now := a.now()
	if err := a.repo.RecordLogin(ctx, u.ID, now); err != nil {
		// Accounting only; the login itself succeeded.
		return u, token, nil
	}
	u.LastLogin = &now
	return u, token, nil
}

func (a *Auth) issueToken(u *User) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: u.ID,
		Role:   string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ValidateToken parses and verifies a session token.
func (a *Auth) ValidateToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(_ *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// CreateUser validates and stores a new staff account.
func (a *Auth) CreateUser(ctx context.Context, u *User, password string) (int64, error) {
	if err := validateAccount(u); err != nil {
		return 0, err
	}
	if strings.TrimSpace(password) == "" {
		return 0, &InvalidAccountError{Reason: "password is required"}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return 0, errors.Wrap(err, "hash password")
	}
	u.PasswordHash = hash
	if u.Role == "" {
		u.Role = RoleStaff
	}
	u.IsActive = true

	return a.repo.Create(ctx, u)
}

// UpdateUser rewrites account fields; when newPassword is non-empty the
// password is rehashed as well.
func (a *Auth) UpdateUser(ctx context.Context, u *User, newPassword string) error {
	if err := validateAccount(u); err != nil {
		return err
	}
	if err := a.repo.Update(ctx, u); err != nil {
		return err
	}
	if strings.TrimSpace(newPassword) != "" {
		hash, err := HashPassword(newPassword)
		if err != nil {
			return errors.Wrap(err, "hash password")
		}
		return a.repo.UpdatePassword(ctx, u.ID, hash)
	}
	return nil
}

// ChangePassword verifies the current password before storing a new hash.
func (a *Auth) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(next)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return a.repo.UpdatePassword(ctx, id, hash)
}

// DeleteUser removes an account. The seeded admin is protected.
func (a *Auth) DeleteUser(ctx context.Context, id int64) error {
	u, err := a.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.Username == adminUsername {
		return ErrProtected
	}
	return a.repo.Delete(ctx, id)
}

func validateAccount(u *User) error {
	switch {
	case strings.TrimSpace(u.Username) == "":
		return &InvalidAccountError{Reason: "username is required"}
	case strings.TrimSpace(u.Email) == "":
		return &InvalidAccountError{Reason: "email is required"}
	case strings.TrimSpace(u.FullName) == "":
		return &InvalidAccountError{Reason: "full name is required"}
	case u.Role != "" && u.Role != RoleAdmin && u.Role != RoleStaff:
		return &InvalidAccountError{Reason: fmt.Sprintf("unknown role %q", u.Role)}
	}
	for _, p := range u.Permissions {
		if !p.Valid() {
			return &InvalidAccountError{Reason: fmt.Sprintf("unknown permission %q", p)}
		}
	}
	return nil
}
