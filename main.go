package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billbatista/eventfund/config"
	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/profile"
	"github.com/billbatista/eventfund/server"
	"github.com/billbatista/eventfund/session"
	"github.com/billbatista/eventfund/user"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		stop()
		printErrorAndExit("eventfund", err)
	}
}

// run returns instead of exiting so the store is closed and buffered audit
// events are saved on every path.
func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	docs, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer docs.Close()

	keys, err := cfg.Keyspace()
	if err != nil {
		return fmt.Errorf("key layout: %w", err)
	}

	audit, stopAudit, err := cfg.StartAudit(ctx)
	if err != nil {
		return fmt.Errorf("audit database: %w", err)
	}
	defer stopAudit()

	eventRepo := ledger.NewRepository(docs, keys)
	events := ledger.NewService(eventRepo,
		ledger.WithActiveWindow(cfg.ActiveWindowDays),
		ledger.WithAuditLogger(audit),
	)
	userRepo := user.NewRepository(docs, keys)
	sessionRepo := session.NewRepository(docs, keys, cfg.SessionTTL)
	profileRepo := profile.NewRepository(docs, keys, eventRepo)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.New(events, userRepo, sessionRepo, profileRepo, audit).Routes(),
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr, "store", cfg.Store, "key_layout", cfg.KeyLayout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("while serving: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := eg.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}

func printErrorAndExit(msg string, e error) {
	slog.Error(msg, "error", e)
	os.Exit(1)
}
