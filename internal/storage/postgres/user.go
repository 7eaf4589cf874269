package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/karuwa-takeaway/internal/domain/user"
)

const (
	userColumns = `id, username, password_hash, email, full_name, role, permissions, is_active, created_at, last_login`

	getUserByIDSQL       = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	getUserByUsernameSQL = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	listUsersSQL         = `SELECT ` + userColumns + ` FROM users ORDER BY id`

	createUserSQL = `INSERT INTO users (username, password_hash, email, full_name, role, permissions, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	updateUserSQL = `UPDATE users
		SET username = $1, email = $2, full_name = $3, role = $4, permissions = $5, is_active = $6
		WHERE id = $7`

	updateUserPasswordSQL = `UPDATE users SET password_hash = $1 WHERE id = $2`
	recordUserLoginSQL    = `UPDATE users SET last_login = $1 WHERE id = $2`
	deleteUserSQL         = `DELETE FROM users WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns one account by id. Returns user.ErrNotFound when missing.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByUsername returns one account by username.
// Returns user.ErrNotFound when missing.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getOne(ctx, getUserByUsernameSQL, username)
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*user.User, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return &u, nil
}

// List returns all accounts ordered by id.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.pool.Query(ctx, listUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return pgx.CollectRows(rows, scanUser)
}

// Create inserts a new account and returns its id.
// Returns user.ErrDuplicate when the username or email is taken.
func (r *UserRepository) Create(ctx context.Context, u *user.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, createUserSQL,
		u.Username, u.PasswordHash, u.Email, u.FullName,
		u.Role, permissionsToText(u.Permissions), u.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, user.ErrDuplicate
		}
		return 0, fmt.Errorf("creating user %q: %w", u.Username, err)
	}
	return id, nil
}

// Update rewrites account fields, leaving the password hash untouched.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx, updateUserSQL,
		u.Username, u.Email, u.FullName, u.Role,
		permissionsToText(u.Permissions), u.IsActive, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicate
		}
		return fmt.Errorf("updating user %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, updateUserPasswordSQL, hash, id)
	if err != nil {
		return fmt.Errorf("updating password for user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// RecordLogin stamps the last successful login time.
func (r *UserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, recordUserLoginSQL, at, id)
	if err != nil {
		return fmt.Errorf("recording login for user %d: %w", id, err)
	}
	return nil
}

// Delete removes an account. Returns user.ErrNotFound when it does not exist.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var (
		u     user.User
		role  string
		perms []string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FullName,
		&role, &perms, &u.IsActive, &u.CreatedAt, &u.LastLogin,
	)
	u.Role = user.Role(role)
	u.Permissions = make([]user.Permission, len(perms))
	for i, p := range perms {
		u.Permissions[i] = user.Permission(p)
	}
	return u, err
}

func permissionsToText(perms []user.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}
