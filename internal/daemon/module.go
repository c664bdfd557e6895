package daemon

import (
	"context"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/huddleapp/huddle/internal/auth"
	"github.com/huddleapp/huddle/internal/bus"
	"github.com/huddleapp/huddle/internal/channel"
	"github.com/huddleapp/huddle/internal/config"
	"github.com/huddleapp/huddle/internal/intent"
	"github.com/huddleapp/huddle/internal/lock"
	"github.com/huddleapp/huddle/internal/logging"
	"github.com/huddleapp/huddle/internal/session"
	"github.com/huddleapp/huddle/internal/status"
	"github.com/huddleapp/huddle/internal/store"
	intsync "github.com/huddleapp/huddle/internal/sync"
	"github.com/huddleapp/huddle/internal/vault"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideConfig,
			provideVault,
			provideStore,
			provideDispatcher,
			provideChannel,
			provideIntents,
			provideAuthenticator,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = &config.Config{Server: config.DefaultServer}
		logger.Info("no config file, using defaults")
	}
	logger.Info("config loaded", zap.String("server", cfg.Server))
	return cfg, nil
}

func provideVault(p Params, logger *zap.Logger) (*vault.Vault, error) {
	v, err := vault.Open(session.VaultDir(p.SessionName), vaultPassword(p.SessionName), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("vault opened", zap.String("path", session.VaultDir(p.SessionName)))
	return v, nil
}

// vaultPassword returns the key protecting the session vault. Deployments
// that want a real secret set HUDDLE_VAULT_KEY; the default only shields
// the files from casual reads.
func vaultPassword(sessionName string) string {
	if key := os.Getenv("HUDDLE_VAULT_KEY"); key != "" {
		return key
	}
	return sessionName
}

func provideStore(b *bus.Bus) *store.Store {
	return store.New(b)
}

func provideDispatcher(s *store.Store, b *bus.Bus, logger *zap.Logger) *intsync.Dispatcher {
	return intsync.NewDispatcher(s, b, logger)
}

func provideChannel(cfg *config.Config, v *vault.Vault, d *intsync.Dispatcher, m *status.Machine, b *bus.Bus, logger *zap.Logger) *channel.Channel {
	return channel.New(cfg, v, d, m, b, logger)
}

func provideIntents(ch *channel.Channel, s *store.Store, logger *zap.Logger) *intent.Intents {
	return intent.New(ch, s, logger)
}

func provideAuthenticator(cfg *config.Config, v *vault.Vault, s *store.Store, ch *channel.Channel, b *bus.Bus, logger *zap.Logger) *auth.Authenticator {
	return auth.New(cfg, v, s, ch, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, a *auth.Authenticator, ch *channel.Channel, _ *intent.Intents, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			// Resolve the stored identity, then bring the socket up in the
			// background so startup never blocks on the network.
			if a.Initialize(context.Background()) {
				go ch.Connect(context.Background())
			} else {
				logger.Info("no stored identity, sign-in required")
			}
			return nil
		},
		OnStop: func(_ context.Context) error {
			ch.Close()
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
