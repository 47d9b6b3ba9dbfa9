package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

var usersTable = Table[models.User]{
	Name:     "users",
	Key:      "id",
	Columns:  []string{"id", "email", "password_hash", "name", "role", "refresh_token_hash", "created_at", "updated_at"},
	Sortable: []string{"email", "name", "created_at"},
	Scan:     rowToUser,
	KeyOf:    func(u models.User) int64 { return u.ID },
}

const createUser = `-- name: CreateUser
INSERT INTO users (email, password_hash, name, role)
VALUES ($1, $2, $3, $4::text::user_role)
RETURNING id, email, password_hash, name, role, refresh_token_hash, created_at, updated_at
`

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	role := arg.Role
	if role == "" {
		role = models.RoleUser
	}

	rows, _ := r.DB.Query(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name, string(role))
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT id, email, password_hash, name, role, refresh_token_hash, created_at, updated_at
FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	return user, userError(err)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT id, email, password_hash, name, role, refresh_token_hash, created_at, updated_at
FROM users
WHERE email = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, email)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	return user, userError(err)
}

const updateUser = `-- name: UpdateUser
UPDATE users
SET name = COALESCE($2, name),
    updated_at = NOW()
WHERE id = $1
RETURNING id, email, password_hash, name, role, refresh_token_hash, created_at, updated_at
`

func (r *UserRepo) UpdateUser(ctx context.Context, id int64, arg repository.UpdateUserParams) (models.User, error) {
	if arg.Empty() {
		return models.User{}, apperrors.ErrNoInput
	}

	rows, _ := r.DB.Query(ctx, updateUser, id, arg.Name)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	return user, userError(err)
}

const setRefreshTokenHash = `-- name: SetRefreshTokenHash
UPDATE users
SET refresh_token_hash = $2
WHERE id = $1
`

func (r *UserRepo) SetRefreshTokenHash(ctx context.Context, id int64, hash *string) error {
	tag, err := r.DB.Exec(ctx, setRefreshTokenHash, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

// Backslash is the default LIKE escape character
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Apply filters and order to users query
func usersQuery(opts repository.ListUsersOpts) func(*Query) {
	return func(q *Query) {
		if opts.Role != "" {
			q.Where("role::text = ?", string(opts.Role))
		}
		if opts.EmailContains != "" {
			q.Where("email ILIKE '%' || ?::text || '%'", likeEscaper.Replace(opts.EmailContains))
		}
		for _, o := range opts.Order {
			q.OrderBy(o.Column, o.Direction)
		}
	}
}

func (r *UserRepo) ListUsers(ctx context.Context, req models.PageRequest, opts repository.ListUsersOpts) (models.Page[models.User], error) {
	return Paginate(ctx, r.DB, usersTable, req, usersQuery(opts))
}

func (r *UserRepo) ListUsersCursor(ctx context.Context, req models.CursorRequest, opts repository.ListUsersOpts) (models.CursorPage[models.User], error) {
	return PaginateCursor(ctx, r.DB, usersTable, req, usersQuery(opts))
}

func userError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.ErrUserNotFound
	default:
		return fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.RefreshTokenHash, &u.CreatedAt, &u.UpdatedAt)
	u.Role = models.Role(role)
	return u, err
}
