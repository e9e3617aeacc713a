package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/art-battle-backend/internal/config"
	"github.com/DoyleJ11/art-battle-backend/internal/httpapi"
	"github.com/DoyleJ11/art-battle-backend/internal/hub"
	"github.com/DoyleJ11/art-battle-backend/internal/identity"
	"github.com/DoyleJ11/art-battle-backend/internal/lobby"
	"github.com/DoyleJ11/art-battle-backend/internal/logging"
	"github.com/DoyleJ11/art-battle-backend/internal/stats"
	"github.com/DoyleJ11/art-battle-backend/internal/storage"
	"github.com/DoyleJ11/art-battle-backend/internal/ws"
)

// accountStore is what the server needs from the database.
type accountStore interface {
	ws.AccountResolver
	stats.Store
}

func main() {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:           "art-battle",
		Short:         "Realtime drawing game server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Load(cmd.Root().PersistentFlags(), ".env"); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	config.RegisterFlags(root.PersistentFlags(), cfg)

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the users and session tables",
		RunE: func(*cobra.Command, []string) error {
			if cfg.DatabaseURL == "" {
				return errors.New("migrate needs --database-url")
			}
			return storage.Migrate(cfg.DatabaseURL)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	var store accountStore = storage.Nop{}
	if cfg.DatabaseURL != "" {
		repo, err := storage.NewPostgresRepo(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer repo.Close()
		store = repo
	} else {
		log.Info("no database configured, accounts disabled")
	}

	outcomes := stats.NewDispatcher(store, cfg.OutcomeQueue, cfg.OutcomeTimeout, log)
	ids := identity.NewMap()

	h := hub.NewHub(ctx, lobby.Options{
		Log:                 log,
		Directory:           ids,
		Outcomes:            outcomes,
		DefaultRoundSeconds: cfg.DefaultRoundSeconds,
		GracePeriod:         cfg.GracePeriod,
		ReplayLimit:         cfg.ReplayLimit,
	})

	wsHandler := ws.Handler(ws.Deps{
		Hub:        h,
		Identities: ids,
		Accounts:   store,
		Log:        log,
	}, ws.Config{
		OriginPatterns: cfg.AllowedOrigins,
		SessionCookie:  cfg.SessionCookie,
		SessionSecret:  cfg.SessionSecret,
		OutboxSize:     cfg.OutboxSize,
		PingInterval:   cfg.PingInterval,
		PongTimeout:    cfg.ReadTimeout,
		StrokeRate:     cfg.StrokeRate,
		StrokeBurst:    cfg.StrokeBurst,
	})

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: httpapi.SetupRoutes(httpapi.Deps{
			Hub:       h,
			Log:       log,
			WS:        wsHandler,
			PublicURL: cfg.PublicURL,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		h.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if cerr := outcomes.Close(shutdownCtx); cerr != nil {
			log.Warn("outcomes not fully flushed", zap.Error(cerr))
		}
		return err
	})
	return g.Wait()
}
