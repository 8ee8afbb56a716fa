package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenProvider issues and verifies HS512 access tokens.
type TokenProvider struct {
	secret             []byte
	validity           time.Duration
	rememberMeValidity time.Duration
	now                func() time.Time
}

// NewTokenProvider creates a provider signing with secret. Tokens live for validity, or rememberMe when the
// user asked to be remembered.
func NewTokenProvider(secret string, validity, rememberMe time.Duration) (*TokenProvider, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: jwt_secret must be at least 32 bytes", shared.ErrInvalidConfig)
	}
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	if rememberMe <= 0 {
		rememberMe = validity
	}
	return &TokenProvider{secret: []byte(secret), validity: validity, rememberMeValidity: rememberMe, now: time.Now}, nil
}

// Issue creates a signed token for user.
func (p *TokenProvider) Issue(user *models.User, rememberMe bool) (string, error) {
	validity := p.validity
	if rememberMe {
		validity = p.rememberMeValidity
	}

	now := p.now()
	claims := models.Claims{
		Auth: strings.Join(user.Authorities, ","),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Login,
			ID:        strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns its claims.
func (p *TokenProvider) Verify(raw string) (*models.Claims, error) {
	claims := &models.Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, shared.ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidToken, err)
	}
	return claims, nil
}

// UserFinder looks up accounts by login.
type UserFinder interface {
	GetByLogin(ctx context.Context, login string) (*models.User, error)
}

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// AuthHandler serves POST /api/authenticate.
type AuthHandler struct {
	users  UserFinder
	tokens *TokenProvider
	logger *log.Logger
}

func NewAuthHandler(users UserFinder, tokens *TokenProvider, logger *log.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

func (h *AuthHandler) Routes() []string {
	return []string{"POST /api/authenticate"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, models.Problem{Status: http.StatusBadRequest, Detail: "malformed login request"})
		return
	}

	user, err := h.users.GetByLogin(r.Context(), strings.ToLower(strings.TrimSpace(req.Username)))
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		h.logger.Error("user lookup failed", "error", err)
		writeProblem(w, models.Problem{Status: http.StatusInternalServerError, Detail: "internal error"})
		return
	}
	if user == nil || !user.Activated || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.logger.Warn("bad credentials", "username", req.Username)
		writeProblem(w, models.Problem{Status: http.StatusUnauthorized, Detail: "Bad credentials", Message: "error.http.401"})
		return
	}

	token, err := h.tokens.Issue(user, req.RememberMe)
	if err != nil {
		h.logger.Error("token issue failed", "error", err)
		writeProblem(w, models.Problem{Status: http.StatusInternalServerError, Detail: "internal error"})
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, http.StatusOK, map[string]string{"id_token": token})
}

// HashPassword returns the bcrypt hash stored for password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password must not be empty", shared.ErrInvalidArgument)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
