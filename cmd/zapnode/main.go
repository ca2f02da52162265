package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/jackc/pgx/v5/pgxpool"

	migrations "github.com/RibasSu/zapnode/db"
	"github.com/RibasSu/zapnode/internal/chatwoot"
	"github.com/RibasSu/zapnode/internal/config"
	"github.com/RibasSu/zapnode/internal/db"
	"github.com/RibasSu/zapnode/internal/handlers"
	"github.com/RibasSu/zapnode/internal/identity"
	"github.com/RibasSu/zapnode/internal/logger"
	"github.com/RibasSu/zapnode/internal/media"
	"github.com/RibasSu/zapnode/internal/relay"
	"github.com/RibasSu/zapnode/internal/server"
	"github.com/RibasSu/zapnode/internal/whatsapp"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Chatwoot.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			conn.Close()
			return nil
		},
	})
	return conn, nil
}

func provideMediaStore(log *slog.Logger, cfg config.Config) (*media.Store, error) {
	return media.NewStore(log, cfg.Media.Dir)
}

func provideChatwootClient(log *slog.Logger, cfg config.Config) *chatwoot.Client {
	cw := cfg.Chatwoot
	return chatwoot.NewClient(log, cw.BaseURL, cw.AccountID, cw.InboxID, cw.APIToken, cw.Timeout())
}

func provideInboundRelay(log *slog.Logger, cfg config.Config, identities *identity.Store, cw *chatwoot.Client, sink *media.Store) *relay.InboundRelay {
	return relay.NewInboundRelay(log, identities, cw, sink, cfg.Server.PublicURL)
}

func provideOutboundRelay(log *slog.Logger, handle *whatsapp.Handle, cfg config.Config) *relay.OutboundRelay {
	return relay.NewOutboundRelay(log, handle, cfg.Chatwoot.AgentFallback, cfg.WhatsApp.Delay())
}

func provideWhatsAppSession(log *slog.Logger, cfg config.Config, handle *whatsapp.Handle, inbound *relay.InboundRelay) *whatsapp.Session {
	dispatch := func(ctx context.Context, evt relay.InboundEvent) {
		if err := inbound.Handle(ctx, evt); err != nil {
			log.Error("inbound relay failed",
				slog.String("channel_address", evt.SenderAddress),
				slog.Any("error", err),
			)
		}
	}
	return whatsapp.NewSession(log, cfg.WhatsApp, db.DSN(cfg.Postgres), handle, dispatch)
}

func provideServer(log *slog.Logger, cfg config.Config, ping *handlers.PingHandler, webhook *handlers.WebhookHandler, mediaHandler *handlers.MediaHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, ping, webhook, mediaHandler)
}

func runMigrations(logger *slog.Logger, cfg config.Config) error {
	migrationsFS, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	return db.Migrate(logger, cfg.Postgres, migrationsFS)
}

func startWhatsApp(lc fx.Lifecycle, session *whatsapp.Session) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return session.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			session.Stop()
			return nil
		},
	})
}

func startMediaSweeper(lc fx.Lifecycle, store *media.Store, cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			store.StartSweeper(ctx, cfg.Media.RetentionSweepInterval(), cfg.Media.RetentionMaxAge())
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,

			identity.NewStore,
			provideMediaStore,
			provideChatwootClient,
			whatsapp.NewHandle,

			provideInboundRelay,
			provideOutboundRelay,
			provideWhatsAppSession,

			handlers.NewPingHandler,
			handlers.NewWebhookHandler,
			handlers.NewMediaHandler,

			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startWhatsApp,
			startMediaSweeper,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}
