package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

const authenticatePath = "/api/authenticate"

// Credentials is the login request body.
type Credentials struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type jwtToken struct {
	IDToken string `json:"id_token"`
}

// AuthService exchanges credentials for a bearer token.
type AuthService struct {
	api *APIService
}

func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

// Authenticate logs in and returns the issued token. Expiry is read from the token's exp claim.
func (s *AuthService) Authenticate(ctx context.Context, creds Credentials) (*oauth2.Token, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := s.api.Post(ctx, authenticatePath, data)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: bad credentials", shared.ErrAuthFailed)
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var body jwtToken
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.IDToken == "" {
		return nil, fmt.Errorf("%w: response has no id_token", shared.ErrAuthFailed)
	}

	claims, err := ParseClaims(body.IDToken)
	if err != nil {
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: body.IDToken, TokenType: "Bearer"}
	if claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok, nil
}

// ParseClaims reads the claims of an access token without checking its signature. The server verifies the
// signature on every request; the client only needs the subject, authorities and expiry.
func ParseClaims(raw string) (*models.Claims, error) {
	claims := &models.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	return claims, nil
}

// TokenStore persists the access token as JSON.
type TokenStore struct {
	path string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Path() string { return s.path }

// Load reads the stored token. A missing file, or an expired token, is [shared.ErrNotAuthenticated] /
// [shared.ErrTokenExpired].
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	if !tok.Expiry.IsZero() && time.Now().After(tok.Expiry) {
		return &tok, shared.ErrTokenExpired
	}
	return &tok, nil
}

// Save writes tok with owner-only permissions.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing a missing token is not an error.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// NewHTTPClient returns a client with the given timeout that sends tok as a bearer token. A nil tok gives an
// unauthenticated client.
func NewHTTPClient(ctx context.Context, timeout time.Duration, tok *oauth2.Token) *http.Client {
	client := &http.Client{}
	if tok != nil {
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	}
	client.Timeout = timeout
	return client
}
