// Package auth turns vaulted credentials or tokens into an authenticated
// identity. Authentication failures never propagate as fatal errors: every
// branch degrades to a signed-out state or, when an optimistic session
// already exists, leaves it untouched.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/bus"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/store"
	"github.com/huddleapp/huddle/internal/vault"
)

// Closer is the slice of the realtime channel logout needs.
type Closer interface {
	Close()
}

// Authenticator owns the sign-in lifecycle: cold-start initialization,
// explicit login and logout.
type Authenticator struct {
	cfg     *config.Config
	vault   *vault.Vault
	store   *store.Store
	channel Closer
	bus     *bus.Bus
	logger  *zap.Logger
	client  *signInClient
}

// New creates an authenticator.
func New(cfg *config.Config, v *vault.Vault, s *store.Store, channel Closer, b *bus.Bus, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		cfg:     cfg,
		vault:   v,
		store:   s,
		channel: channel,
		bus:     b,
		logger:  logger,
		client:  newSignInClient(cfg),
	}
}

// Initialize resolves the cold-start session and reports whether it ended
// up authenticated. Stored tokens grant an optimistic provisional session
// immediately; stored credentials confirm it in the background without
// ever downgrading on failure. Initialized flips true as the final step
// of every branch.
func (a *Authenticator) Initialize(ctx context.Context) bool {
	defer a.markInitialized()

	tokens, hasTokens := a.vault.Tokens()
	creds, hasCreds := a.vault.Credentials()

	if hasTokens && tokens.Access != "" {
		a.setAuth(store.AuthProvisional, nil)
		if hasCreds {
			// Background refresh; transient failure must not log the
			// user out.
			go a.refresh(ctx, creds)
		}
		return true
	}

	if hasCreds {
		resp, err := a.client.signIn(ctx, creds)
		if err != nil {
			a.logger.Warn("cold-start sign-in failed", zap.Error(err))
			a.setAuth(store.AuthNone, nil)
			return false
		}
		a.vault.SetTokens(&resp.Tokens)
		a.setAuth(store.AuthConfirmed, &resp.User)
		return true
	}

	a.setAuth(store.AuthNone, nil)
	return false
}

// SignIn authenticates fresh credentials against the server and, on
// success, persists them alongside the returned tokens.
func (a *Authenticator) SignIn(ctx context.Context, username, password string) error {
	creds := &store.Credentials{Username: username, Password: password}
	resp, err := a.client.signIn(ctx, creds)
	if err != nil {
		return err
	}
	a.Login(creds, resp.User, &resp.Tokens)
	return nil
}

// Login records an authenticated identity. Whichever of creds and tokens
// is non-nil gets persisted; either may be absent without failing the
// other.
func (a *Authenticator) Login(creds *store.Credentials, user store.User, tokens *store.TokenPair) {
	if creds != nil {
		a.vault.SetCredentials(creds)
	}
	if tokens != nil {
		a.vault.SetTokens(tokens)
	}
	a.setAuth(store.AuthConfirmed, &user)
}

// Logout deletes both vault entries, closes the realtime channel and
// resets the store to its signed-out shape.
func (a *Authenticator) Logout() {
	a.vault.Delete(vault.KeyCredentials)
	a.vault.Delete(vault.KeyTokens)
	if a.channel != nil {
		a.channel.Close()
	}

	a.store.Update("auth", func(st store.State) (store.State, bool) {
		st.Auth = store.AuthNone
		st.User = store.User{}
		st.SearchResults = nil
		st.Requests = nil
		st.Friends = nil
		st.Messages = nil
		st.MessagesUsername = ""
		return st, true
	})

	if a.bus != nil {
		a.bus.Publish(bus.Event{Kind: bus.KindSessionLoggedOut, Timestamp: time.Now()})
	}
	a.logger.Info("logged out")
}

// refresh re-runs credential sign-in behind an already-provisional
// session. Success rotates the stored tokens and confirms the identity;
// failure changes nothing.
func (a *Authenticator) refresh(ctx context.Context, creds *store.Credentials) {
	resp, err := a.client.signIn(ctx, creds)
	if err != nil {
		a.logger.Warn("background re-sign-in failed, keeping session", zap.Error(err))
		return
	}
	a.vault.SetTokens(&resp.Tokens)
	a.setAuth(store.AuthConfirmed, &resp.User)
}

func (a *Authenticator) setAuth(phase store.AuthPhase, user *store.User) {
	a.store.Update("auth", func(st store.State) (store.State, bool) {
		st.Auth = phase
		if user != nil {
			st.User = *user
		}
		return st, true
	})
}

func (a *Authenticator) markInitialized() {
	a.store.Update("initialized", func(st store.State) (store.State, bool) {
		if st.Initialized {
			return st, false
		}
		st.Initialized = true
		return st, true
	})
}
