package models

import (
	"slices"
	"time"
)

const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is an account allowed to call the API.
type User struct {
	ID           int64     `json:"id,omitempty"`
	Login        string    `json:"login" validate:"required,min=1,max=50"`
	PasswordHash string    `json:"-" validate:"required"`
	Authorities  []string  `json:"authorities" validate:"min=1,dive,required"`
	Activated    bool      `json:"activated"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewUser creates an activated user with the given password hash and authorities.
func NewUser(login, passwordHash string, authorities ...string) *User {
	if len(authorities) == 0 {
		authorities = []string{RoleUser}
	}
	return &User{
		Login:        login,
		PasswordHash: passwordHash,
		Authorities:  authorities,
		Activated:    true,
		CreatedAt:    time.Now().UTC(),
	}
}

func (u User) Identity() int64 { return u.ID }
func (u User) Validate() error { return ValidateStruct(u) }

// HasAuthority reports whether the user was granted authority.
func (u User) HasAuthority(authority string) bool {
	return slices.Contains(u.Authorities, authority)
}
