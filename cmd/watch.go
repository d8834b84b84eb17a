// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/ocellus/internal/metrics"
)

var (
	watchLine        bool
	watchInterval    time.Duration
	watchMetricsAddr string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live monitor of detected blocks or line features",
	Long: `Poll the sensor and show the results in a live terminal view.

By default color blocks are shown; with --line the line tracking features are
shown instead. The sensor must already run the matching program.

Session statistics are shown below the table. With --metrics-addr the same
counters are exported for Prometheus at http://ADDR/metrics.

Press 'q' to quit.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchLine, "line", false, "Show line features instead of blocks")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 100*time.Millisecond, "Poll interval")
	watchCmd.Flags().StringVar(&watchMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9110)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval <= 0 {
		return fmt.Errorf("invalid --interval %s: must be positive", watchInterval)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sess, connInfo, err := OpenSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if watchMetricsAddr != "" {
		metrics.Register(sess.Stats(), connInfo)

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: watchMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Str("addr", watchMetricsAddr).Msg("metrics server failed")
			}
		}()
		defer srv.Close()

		logger.Info().Str("addr", watchMetricsAddr).Msg("serving metrics")
	}

	m := newWatchModel(ctx, sess, connInfo, watchLine, watchInterval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	// Stop any poll still in flight before the session closes
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("monitor failed: %w", err)
	}

	return nil
}
