package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"mqb-assist-core/utils"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		cfg      RunnerConfig
		logLevel string
		logPath  string
	)

	cmd := &cobra.Command{
		Use:   "closed_loop",
		Short: "Drive the MQB lateral and cruise controllers from a scenario over SocketCAN",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := utils.NewFileLogger(logPath, utils.ParseLogLevel(logLevel), true)
			if err != nil {
				return errors.Wrapf(err, "open %s", logPath)
			}
			defer log.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner, err := NewRunner(ctx, cfg, log)
			if err != nil {
				log.Critical("Startup failed: %v", err)
				return err
			}
			defer runner.Close()

			if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Critical("Run failed: %v", err)
				return err
			}
			return nil
		},
	}
	cmd.SilenceUsage = true

	f := cmd.Flags()
	f.StringVar(&cfg.GatewayIface, "iface", "vcan0", "SocketCAN interface of the gateway bus")
	f.StringVar(&cfg.ExtendedIface, "ext-iface", "", "SocketCAN interface of the extended bus (default: --iface)")
	f.StringVar(&cfg.MapPath, "map", "", "CAN map CSV (default: embedded MQB map)")
	f.StringVar(&cfg.ScenarioPath, "scenario", "closed_loop/scenarios/lane_keep_30s.json", "Scenario JSON file")
	f.StringVar(&cfg.VehiclePath, "vehicle", "", "Vehicle YAML (default: Golf Mk7, gateway bus 0, extended bus 2)")
	f.StringVar(&cfg.TracePath, "trace", "", "Write a CSV trace of ego and lead state to this file")
	f.StringVar(&logLevel, "log", "info", "trace|debug|info|warn|error|critical")
	f.StringVar(&logPath, "log-file", "closed_loop.log", "Log file, mirrored to stdout")
	return cmd
}
