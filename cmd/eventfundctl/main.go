// eventfundctl inspects and administers the event ledgers stored by the
// eventfund service. It reads the same EVENTFUND_* environment as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/billbatista/eventfund/config"
	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/store"
	"github.com/spf13/cobra"
)

var cmdRoot = &cobra.Command{
	Use:          "eventfundctl",
	SilenceUsage: true,
}

var (
	username string
	eventID  int64
)

func init() {
	cmdRoot.PersistentFlags().StringVar(&username, "user", "", "Owner of the events.")
}

var cmdEvents = &cobra.Command{
	Use: "events [command]",
}

var cmdEventsList = &cobra.Command{
	Use: "list",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *ledger.Service) error {
			refs, err := svc.ListEvents(ctx, username)
			if err != nil {
				return fmt.Errorf("while listing events: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), refs)
		})
	},
}

var cmdEventsActive = &cobra.Command{
	Use: "active",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *ledger.Service) error {
			refs, err := svc.ActiveEvents(ctx, username)
			if err != nil {
				return fmt.Errorf("while filtering active events: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), refs)
		})
	},
}

var cmdEventsShow = &cobra.Command{
	Use: "show",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *ledger.Service) error {
			ref, err := svc.Lookup(ctx, username, eventID)
			if err != nil {
				return err
			}
			event, err := svc.GetEvent(ctx, ref.Name)
			if err != nil {
				return fmt.Errorf("while loading event: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), event)
		})
	},
}

var cmdEventsStatistics = &cobra.Command{
	Use: "statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *ledger.Service) error {
			ref, err := svc.Lookup(ctx, username, eventID)
			if err != nil {
				return err
			}
			stats, err := svc.Statistics(ctx, ref.Name)
			if err != nil {
				return fmt.Errorf("while computing statistics: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), stats)
		})
	},
}

var eventsDeleteKeepRecord bool

var cmdEventsDelete = &cobra.Command{
	Use: "delete",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *ledger.Service) error {
			ref, err := svc.DeleteEvent(ctx, username, eventID, ledger.DeleteOptions{KeepRecord: eventsDeleteKeepRecord})
			if err != nil {
				return fmt.Errorf("while deleting event: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), ref)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{cmdEventsShow, cmdEventsStatistics, cmdEventsDelete} {
		cmd.Flags().Int64Var(&eventID, "id", 0, "Event id from the user's index.")
		cmd.MarkFlagRequired("id")
	}
	cmdEventsDelete.Flags().BoolVar(&eventsDeleteKeepRecord, "keep-record", false, "Only drop the index entry.")

	cmdRoot.AddCommand(cmdEvents)
	cmdEvents.AddCommand(cmdEventsList, cmdEventsActive, cmdEventsShow, cmdEventsStatistics, cmdEventsDelete)
}

// withService opens the configured store and audit trail for the duration
// of one command.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *ledger.Service) error) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("while loading config: %w", err)
	}
	docs, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer docs.Close()

	audit, stopAudit, err := cfg.StartAudit(ctx)
	if err != nil {
		return fmt.Errorf("while opening audit database: %w", err)
	}
	defer stopAudit()

	svc, err := newService(cfg, docs, audit)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func newService(cfg config.Config, docs store.Store, audit eventlogger.Logger) (*ledger.Service, error) {
	keys, err := cfg.Keyspace()
	if err != nil {
		return nil, fmt.Errorf("while building keyspace: %w", err)
	}
	return ledger.NewService(ledger.NewRepository(docs, keys),
		ledger.WithActiveWindow(cfg.ActiveWindowDays),
		ledger.WithAuditLogger(audit),
	), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}
