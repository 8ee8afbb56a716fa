package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

const healthPath = "/api/health"

// AuthLogin exchanges credentials for a token and stores it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := services.Credentials{
		Username:   cmd.String("username"),
		Password:   cmd.String("password"),
		RememberMe: cmd.Bool("remember-me"),
	}

	r.logger.Info("authenticating", "user", creds.Username, "url", r.config.Client.BaseURL)
	api := services.NewAPIService(r.config.Client.BaseURL, r.httpClient)
	tok, err := services.NewAuthService(api).Authenticate(ctx, creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := r.tokens.Save(tok); err != nil {
		return err
	}
	r.api = nil

	r.logger.Info("token saved", "path", r.tokens.Path(), "expires", tok.Expiry)
	return r.writePlain("✓ Logged in as %s (expires %s)\n", creds.Username, tok.Expiry.Local().Format(time.RFC1123))
}

// AuthLogout removes the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.tokens.Clear(); err != nil {
		return err
	}
	r.api = nil
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus prints the stored token's claims and, with --ping, whether the backend is reachable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tok, err := r.tokens.Load()
	switch {
	case errors.Is(err, shared.ErrNotAuthenticated):
		return r.writePlain("Not logged in\n")
	case err != nil && !errors.Is(err, shared.ErrTokenExpired):
		return err
	}

	claims, cerr := services.ParseClaims(tok.AccessToken)
	if cerr != nil {
		return cerr
	}

	r.writePlainHeader("Session")
	r.writePlain("User:        %s\n", claims.Subject)
	r.writePlain("Authorities: %s\n", strings.Join(claims.Authorities(), ", "))
	if errors.Is(err, shared.ErrTokenExpired) {
		r.writePlain("Expires:     %s (expired)\n", tok.Expiry.Local().Format(time.RFC1123))
	} else {
		r.writePlain("Expires:     %s\n", tok.Expiry.Local().Format(time.RFC1123))
	}
	r.writePlain("Token file:  %s\n", r.tokens.Path())

	if !cmd.Bool("ping") {
		return nil
	}

	api := services.NewAPIService(r.config.Client.BaseURL, r.httpClient)
	resp, err := api.Get(ctx, healthPath, nil)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writePlain("Backend:     %s up\n", r.config.Client.BaseURL)
}
