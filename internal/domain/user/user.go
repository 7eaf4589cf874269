// Package user manages the staff accounts behind the admin panel: bcrypt
// password storage, an enumerated permission set, and JWT session tokens.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a user id or username does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a username or email is already taken.
	ErrDuplicate = errors.New("username or email already exists")
	// ErrInvalidCredentials is returned on a failed login or password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProtected is returned when deleting the default admin account.
	ErrProtected = errors.New("cannot delete default admin user")
)

// InvalidAccountError indicates account input that fails validation.
type InvalidAccountError struct {
	Reason string
}

func (e *InvalidAccountError) Error() string { return e.Reason }

// Role is the coarse account type.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Permission is one grant from the closed permission set. The original free
// form strings are replaced with this enumeration; unknown values are
// rejected at the boundary.
type Permission string

const (
	PermAll     Permission = "all"
	PermOrders  Permission = "orders"
	PermMenu    Permission = "menu"
	PermPromos  Permission = "promos"
	PermContent Permission = "content"
	PermEmail   Permission = "email"
	PermUsers   Permission = "users"
)

// knownPermissions is the closed set boundary validation checks against.
var knownPermissions = map[Permission]struct{}{
	PermAll: {}, PermOrders: {}, PermMenu: {}, PermPromos: {},
	PermContent: {}, PermEmail: {}, PermUsers: {},
}

// Valid reports whether p belongs to the permission set.
func (p Permission) Valid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// User is a staff account. PasswordHash is a bcrypt hash, never the plain
// text; List/Get responses must not expose it.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        string
	FullName     string
	Role         Role
	Permissions  []Permission
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Has reports whether the user holds the permission, directly or via "all".
func (u *User) Has(p Permission) bool {
	for _, have := range u.Permissions {
		if have == PermAll || have == p {
			return true
		}
	}
	return false
}

// Repository provides staff account storage.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, u *User) (int64, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	RecordLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}
