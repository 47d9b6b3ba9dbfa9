package repository

import (
	"github.com/nkiryanov/authapi/internal/models"
)

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         *string

	// Default role is used if empty
	Role models.Role
}

// Fields to update, nil means leave as is
type UpdateUserParams struct {
	Name *string
}

func (p UpdateUserParams) Empty() bool {
	return p.Name == nil
}

type ListUsersOpts struct {
	// Filter by role if set
	Role models.Role

	// Filter by email substring (case insensitive) if set
	EmailContains string

	// Order to apply, first goes first
	// If primary key is not mentioned it is appended last
	Order []Order
}
