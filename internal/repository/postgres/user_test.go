package postgres

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	create := func(t *testing.T, r *UserRepo, email string) models.User {
		t.Helper()
		user, err := r.CreateUser(t.Context(), repository.CreateUserParams{Email: email, PasswordHash: "hashedpassword123"})
		require.NoError(t, err, "user should be created")
		return user
	}

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), repository.CreateUserParams{Email: "nk@example.com", PasswordHash: "hashedpassword123"})

			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.Equal(t, "nk@example.com", user.Email)
			assert.Equal(t, "hashedpassword123", user.PasswordHash)
			assert.Equal(t, models.RoleUser, user.Role, "default role expected")
			assert.Nil(t, user.Name)
			assert.Nil(t, user.RefreshTokenHash, "new user is signed out")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("create admin with name", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			name := "Admin"

			user, err := r.CreateUser(t.Context(), repository.CreateUserParams{
				Email:        "admin@example.com",
				PasswordHash: "hash",
				Name:         &name,
				Role:         models.RoleAdmin,
			})

			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, user.Role)
			require.NotNil(t, user.Name)
			assert.Equal(t, "Admin", *user.Name)
		})
	})

	t.Run("create user twice fail", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			create(t, &r, "nk@example.com")

			_, err := r.CreateUser(t.Context(), repository.CreateUserParams{Email: "nk@example.com", PasswordHash: "other"})

			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := create(t, &r, "findbyid@example.com")

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created, got)
		})
	})

	t.Run("get user by id not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), 999999)

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")
		})
	})

	t.Run("get user by email ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := create(t, &r, "findbyemail@example.com")

			got, err := r.GetUserByEmail(t.Context(), "findbyemail@example.com")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("get user by email not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByEmail(t.Context(), "nobody@example.com")

			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := create(t, &r, "update@example.com")
			name := "New Name"

			updated, err := r.UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{Name: &name})

			require.NoError(t, err)
			require.NotNil(t, updated.Name)
			assert.Equal(t, "New Name", *updated.Name)
			assert.Equal(t, created.Email, updated.Email)
		})
	})

	t.Run("update user with no input", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := create(t, &r, "noinput@example.com")

			_, err := r.UpdateUser(t.Context(), created.ID, repository.UpdateUserParams{})

			require.ErrorIs(t, err, apperrors.ErrNoInput)
		})
	})

	t.Run("update not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			name := "Ghost"

			_, err := r.UpdateUser(t.Context(), 999999, repository.UpdateUserParams{Name: &name})

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("set and clear refresh token hash", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := create(t, &r, "refresh@example.com")
			hash := "refresh-hash"

			err := r.SetRefreshTokenHash(t.Context(), created.ID, &hash)
			require.NoError(t, err)
			got, err := r.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.NotNil(t, got.RefreshTokenHash)
			assert.Equal(t, "refresh-hash", *got.RefreshTokenHash)

			err = r.SetRefreshTokenHash(t.Context(), created.ID, nil)
			require.NoError(t, err)
			err = r.SetRefreshTokenHash(t.Context(), created.ID, nil)
			require.NoError(t, err, "clearing twice is ok")
			got, err = r.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Nil(t, got.RefreshTokenHash)
		})
	})

	t.Run("set refresh token hash not existed user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			err := r.SetRefreshTokenHash(t.Context(), 999999, nil)

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list users", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			ids := make([]int64, 0, 25)
			for i := range 25 {
				u := create(t, &r, fmt.Sprintf("user%02d@example.com", i+1))
				ids = append(ids, u.ID)
			}
			// ids are increasing, the first page in default order starts with the last one
			id := func(n int) int64 { return ids[n-1] }

			t.Run("cursor walks all rows", func(t *testing.T) {
				page, err := r.ListUsersCursor(t.Context(), models.CursorRequest{Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)
				require.Len(t, page.Items, 10)
				require.Equal(t, id(25), page.Items[0].ID)
				require.Equal(t, id(16), page.Items[9].ID)
				require.Equal(t, strconv.FormatInt(id(16), 10), page.NextCursor)

				page, err = r.ListUsersCursor(t.Context(), models.CursorRequest{Cursor: page.NextCursor, Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)
				require.Len(t, page.Items, 10)
				require.Equal(t, id(15), page.Items[0].ID)
				require.Equal(t, id(6), page.Items[9].ID)
				require.Equal(t, strconv.FormatInt(id(6), 10), page.NextCursor)

				page, err = r.ListUsersCursor(t.Context(), models.CursorRequest{Cursor: page.NextCursor, Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)
				require.Len(t, page.Items, 5)
				require.Equal(t, id(5), page.Items[0].ID)
				require.Equal(t, id(1), page.Items[4].ID)
				require.Empty(t, page.NextCursor, "no more pages")
			})

			t.Run("offset and cursor agree", func(t *testing.T) {
				offset, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 7}, repository.ListUsersOpts{})
				require.NoError(t, err)

				var seen int64
				cursor := ""
				for {
					page, err := r.ListUsersCursor(t.Context(), models.CursorRequest{Cursor: cursor, Size: 7}, repository.ListUsersOpts{})
					require.NoError(t, err)
					seen += int64(len(page.Items))
					if page.NextCursor == "" {
						break
					}
					cursor = page.NextCursor
				}

				require.Equal(t, int64(25), offset.Total)
				require.Equal(t, offset.Total, seen)
			})

			t.Run("offset pages do not overlap", func(t *testing.T) {
				first, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)
				second, err := r.ListUsers(t.Context(), models.PageRequest{Page: 2, Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)
				last, err := r.ListUsers(t.Context(), models.PageRequest{Page: 3, Size: 10}, repository.ListUsersOpts{})
				require.NoError(t, err)

				require.Equal(t, id(25), first.Items[0].ID)
				require.Equal(t, id(15), second.Items[0].ID)
				require.Len(t, last.Items, 5)
				require.Equal(t, id(1), last.Items[4].ID)
			})

			t.Run("filter by email and order", func(t *testing.T) {
				page, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 10}, repository.ListUsersOpts{
					EmailContains: "USER0",
					Order:         []repository.Order{{Column: "email", Direction: repository.Asc}},
				})

				require.NoError(t, err)
				require.Equal(t, int64(9), page.Total, "user01..user09")
				require.Equal(t, "user01@example.com", page.Items[0].Email)
				require.Equal(t, "user09@example.com", page.Items[8].Email)
			})

			t.Run("filter by role", func(t *testing.T) {
				page, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 10}, repository.ListUsersOpts{Role: models.RoleAdmin})

				require.NoError(t, err)
				require.Equal(t, int64(0), page.Total)
				require.Empty(t, page.Items)
			})

			t.Run("email filter is literal", func(t *testing.T) {
				create(t, &r, "under_score@example.com")

				tests := []struct {
					value string
					total int64
				}{
					{"_", 1},
					{"user_1", 0},
					{"%", 0},
					{`\`, 0},
				}
				for _, tt := range tests {
					page, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 10}, repository.ListUsersOpts{EmailContains: tt.value})

					require.NoError(t, err)
					require.Equal(t, tt.total, page.Total, "filter %q", tt.value)
				}
			})

			t.Run("not allowed sort column", func(t *testing.T) {
				_, err := r.ListUsers(t.Context(), models.PageRequest{Page: 1, Size: 10}, repository.ListUsersOpts{
					Order: []repository.Order{{Column: "password_hash", Direction: repository.Asc}},
				})

				require.ErrorIs(t, err, apperrors.ErrValidation)
			})
		})
	})
}
