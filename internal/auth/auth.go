package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/venrik/skydeck/internal/api"
	"github.com/venrik/skydeck/internal/session"
	"github.com/venrik/skydeck/internal/store"
)

// Actions bundles the sign-in and sign-out flows that touch both the
// backend and local state.
type Actions struct {
	Client   *api.Client
	Tokens   *store.TokenStore
	Sessions *session.Service
}

// Login exchanges credentials for a token and stores it.
func (a *Actions) Login(ctx context.Context, creds api.Credentials) error {
	token, err := a.Client.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := a.Tokens.Set(token); err != nil {
		return fmt.Errorf("login: store token: %w", err)
	}

	return nil
}

func (a *Actions) Register(ctx context.Context, req api.RegisterRequest) error {
	if err := a.Client.Register(ctx, req); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

// Logout tears down the server session and, best-effort, the provider grant
// and any processed folders. Local token and provider state are cleared even
// when the API calls fail, so the user is never stranded half logged out.
func (a *Actions) Logout(ctx context.Context) error {
	provider, hasProvider := a.Sessions.Provider()

	if err := a.Client.DeleteProcessedFolders(ctx); err != nil {
		slog.Warn("delete processed folders failed", "error", err)
	}

	if hasProvider {
		if err := a.Client.RevokeProvider(ctx, provider); err != nil {
			slog.Warn("provider revoke failed", "provider", string(provider), "error", err)
		}
	}

	logoutErr := a.Client.Logout(ctx)

	if err := a.Tokens.Clear(); err != nil {
		slog.Warn("token clear failed", "error", err)
	}
	if err := a.Sessions.ClearProvider(); err != nil {
		slog.Warn("provider clear failed", "error", err)
	}

	if logoutErr != nil {
		return fmt.Errorf("logout: %w", logoutErr)
	}
	return nil
}
