package models

import (
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims. Auth holds the comma separated authorities.
type Claims struct {
	Auth string `json:"auth"`
	jwt.RegisteredClaims
}

// Authorities splits Auth.
func (c Claims) Authorities() []string {
	if c.Auth == "" {
		return nil
	}
	return strings.Split(c.Auth, ",")
}

// HasAuthority reports whether the token grants authority.
func (c Claims) HasAuthority(authority string) bool {
	return slices.Contains(c.Authorities(), authority)
}
