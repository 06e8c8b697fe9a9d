package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var (
		window time.Duration
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "prune [meeting-token]",
		Short: "Delete expired signals of one meeting, or of every active meeting with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, done, err := bootstrap(cmd)
			if err != nil {
				return err
			}
			defer done()

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			sess := newSession(cfg, store)

			var n int64
			if all {
				n, err = service.NewSignalJanitor(sess, 0).PruneOnce(cmd.Context())
			} else {
				n, err = sess.PruneSignals(cmd.Context(), args[0], service.PruneSignalsRequest{Window: window})
			}
			if err != nil {
				return err
			}
			slog.Info("signals pruned", "deleted", n)
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 0, "retention window (default: signals.retention)")
	cmd.Flags().BoolVar(&all, "all", false, "prune every active meeting")
	return cmd
}
