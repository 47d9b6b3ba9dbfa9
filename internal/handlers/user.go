package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nkiryanov/authapi/internal/apperrors"
	"github.com/nkiryanov/authapi/internal/handlers/middleware"
	"github.com/nkiryanov/authapi/internal/handlers/render"
	"github.com/nkiryanov/authapi/internal/logger"
	"github.com/nkiryanov/authapi/internal/models"
	"github.com/nkiryanov/authapi/internal/repository"
	"github.com/nkiryanov/authapi/internal/service/user"
	"github.com/nkiryanov/authapi/internal/validate"
)

const defaultPageSize = 10

func handleUpdateMe(userService userService, l logger.Logger) middleware.IdentityHandler {
	type request struct {
		Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	}

	return func(w http.ResponseWriter, r *http.Request, u *models.User) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := userService.UpdateProfile(r.Context(), u.ID, repository.UpdateUserParams{Name: data.Name})
		if err != nil {
			fail(w, r, l, err)
			return
		}

		render.JSON(w, newUserResponse(updated))
	}
}

func handleListUsers(userService userService, l logger.Logger) middleware.IdentityHandler {
	type response struct {
		Items []userResponse `json:"items"`
		Total int64          `json:"total"`
		Page  int            `json:"page"`
		Size  int            `json:"size"`
	}

	return func(w http.ResponseWriter, r *http.Request, _ *models.User) {
		q := r.URL.Query()

		page, err := queryInt(q, "page", 1)
		if err != nil {
			render.Error(w, err)
			return
		}
		size, opts, err := listParams(q)
		if err != nil {
			render.Error(w, err)
			return
		}

		result, err := userService.List(r.Context(), models.PageRequest{Page: page, Size: size}, opts)
		if err != nil {
			fail(w, r, l, err)
			return
		}

		render.JSON(w, response{
			Items: userResponses(result.Items),
			Total: result.Total,
			Page:  result.Page,
			Size:  result.Size,
		})
	}
}

func handleListUsersCursor(userService userService, l logger.Logger) middleware.IdentityHandler {
	type response struct {
		Items      []userResponse `json:"items"`
		NextCursor *string        `json:"nextCursor"`
		Size       int            `json:"size"`
	}

	return func(w http.ResponseWriter, r *http.Request, _ *models.User) {
		q := r.URL.Query()

		size, opts, err := listParams(q)
		if err != nil {
			render.Error(w, err)
			return
		}

		result, err := userService.ListCursor(r.Context(), models.CursorRequest{Cursor: q.Get("cursor"), Size: size}, opts)
		if err != nil {
			fail(w, r, l, err)
			return
		}

		resp := response{Items: userResponses(result.Items), Size: result.Size}
		if result.NextCursor != "" {
			resp.NextCursor = &result.NextCursor
		}
		render.JSON(w, resp)
	}
}

func handleCreateBulk(userService userService, l logger.Logger) middleware.IdentityHandler {
	type newUser struct {
		Email    string      `json:"email" validate:"required,email,max=255"`
		Password string      `json:"password" validate:"required,min=6,max=72"`
		Name     *string     `json:"name" validate:"omitempty,min=1,max=100"`
		Role     models.Role `json:"role" validate:"omitempty,oneof=user admin"`
	}
	type request struct {
		Users []newUser `json:"users" validate:"required,min=1,max=100,dive"`
	}

	return func(w http.ResponseWriter, r *http.Request, _ *models.User) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		users := make([]user.NewUser, 0, len(data.Users))
		for _, u := range data.Users {
			users = append(users, user.NewUser{Email: u.Email, Password: u.Password, Name: u.Name, Role: u.Role})
		}

		created, err := userService.CreateBulk(r.Context(), users)
		if err != nil {
			fail(w, r, l, err)
			return
		}

		render.JSONWithStatus(w, userResponses(created), http.StatusCreated)
	}
}

// listParams reads page size, order and filters shared by offset and cursor listing
func listParams(q url.Values) (int, repository.ListUsersOpts, error) {
	type params struct {
		Size  int    `json:"size" validate:"gte=1,lte=100"`
		Role  string `json:"role" validate:"omitempty,oneof=user admin"`
		Email string `json:"email" validate:"max=255"`
	}

	size, err := queryInt(q, "size", defaultPageSize)
	if err != nil {
		return 0, repository.ListUsersOpts{}, err
	}

	p := params{Size: size, Role: q.Get("role"), Email: q.Get("email")}
	if err := validate.Struct(p); err != nil {
		return 0, repository.ListUsersOpts{}, err
	}

	order, err := repository.ParseOrder(q.Get("sort"))
	if err != nil {
		return 0, repository.ListUsersOpts{}, apperrors.NewValidation("Invalid sort", map[string]string{"sort": err.Error()})
	}

	return p.Size, repository.ListUsersOpts{
		Role:          models.Role(p.Role),
		EmailContains: p.Email,
		Order:         order,
	}, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation(
			fmt.Sprintf("Invalid query parameter '%s'", key),
			map[string]string{key: "Value must be a number"},
		)
	}
	return v, nil
}

func userResponses(users []models.User) []userResponse {
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, newUserResponse(u))
	}
	return resp
}
