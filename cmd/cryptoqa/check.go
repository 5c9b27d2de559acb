package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/andyle182810/cryptoqa/monitor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run every check once and report the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			defer client.Close()

			checks := monitor.DefaultChecks(cfg.Monitor)

			mon, err := monitor.New(client, checks,
				monitor.WithMaxLatency(cfg.Monitor.MaxLatency),
				monitor.WithRegisterer(prometheus.NewRegistry()),
			)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Monitor.CheckTimeout)
			defer cancel()

			results := mon.RunAll(ctx)

			if err := printResults(cmd.OutOrStdout(), results); err != nil {
				return err
			}

			return verdict(results, len(checks))
		},
	}
}

func printResults(w io.Writer, results []monitor.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd

	fmt.Fprintln(tw, "CHECK\tOUTCOME\tDURATION\tERROR")

	for _, r := range results {
		errText := "-"
		if r.Err != nil {
			errText = r.Err.Error()
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Check, r.Outcome, r.Duration.Round(time.Millisecond), errText)
	}

	return tw.Flush()
}

// verdict fails when any check failed or the run was cut short.
func verdict(results []monitor.Result, expected int) error {
	failed := 0

	for _, r := range results {
		if r.Outcome == monitor.OutcomeFailure {
			failed++
		}
	}

	if skipped := expected - len(results); skipped > 0 {
		return fmt.Errorf("%w: %d failed, %d not run", ErrChecksFailed, failed, skipped)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrChecksFailed, failed, len(results))
	}

	return nil
}
