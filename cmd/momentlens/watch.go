package main

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sanspareilsmyn/momentlens/internal/events"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print aggregation events as they are published",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			sub, err := events.NewSubscriber(cfg.Events, logger.Named("watch"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := cmd.OutOrStdout()
			err = sub.Run(ctx, func(_ context.Context, ev events.AggregationCompleted) error {
				tbl := table.NewWriter()
				tbl.SetOutputMirror(w)
				tbl.SetStyle(table.StyleLight)
				tbl.AppendRow(table.Row{
					ev.CompletedAt.Local().Format(time.DateTime),
					ev.ID,
					ev.Mode,
					ev.Query,
					ev.Included,
					ev.Moments,
					strings.Join(ev.Excluded, ", "),
					time.Duration(ev.DurationMs) * time.Millisecond,
				})
				tbl.Render()
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
