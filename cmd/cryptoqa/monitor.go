package main

import (
	"github.com/andyle182810/cryptoqa/metricserver"
	"github.com/andyle182810/cryptoqa/monitor"
	"github.com/andyle182810/cryptoqa/runner"
	"github.com/andyle182810/cryptoqa/workerpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newMonitorCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run checks continuously and expose Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			client := newAPIClient(cfg)
			defer client.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct
			)

			mon, err := monitor.New(client, monitor.DefaultChecks(cfg.Monitor),
				monitor.WithMaxLatency(cfg.Monitor.MaxLatency),
				monitor.WithRegisterer(reg),
			)
			if err != nil {
				return err
			}

			pool := workerpool.New(mon,
				workerpool.WithName("monitor"),
				workerpool.WithWorkerCount(cfg.Monitor.Workers),
				workerpool.WithTickInterval(cfg.Monitor.Interval),
				workerpool.WithExecutionTimeout(cfg.Monitor.CheckTimeout),
				workerpool.WithImmediateStart(),
			)

			runnerOpts := []runner.Option{
				runner.WithCoreService(pool),
				runner.WithShutdownTimeout(cfg.GracefulShutdownPeriod),
			}

			if cfg.MetricServer.Enabled {
				server := metricserver.New(cfg.MetricServer.ServerConfig(cfg.GracefulShutdownPeriod),
					metricserver.WithGatherer(reg),
					metricserver.WithStatus(mon.Status),
				)
				runnerOpts = append(runnerOpts, runner.WithInfrastructureService(server))
			}

			return runner.New(runnerOpts...).Run(cmd.Context())
		},
	}
}
