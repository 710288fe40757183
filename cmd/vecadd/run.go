package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/accel"
	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/keys"
	"github.com/accelforge/vecadd/internal/metrics"
	"github.com/accelforge/vecadd/internal/offload"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute the offload pipeline and print the result vector",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Compute backend to use (opencl, occa, sim)",
			},
			&cli.BoolFlag{
				Name:  "attest",
				Usage: "Sign the run report with the node key",
			},
			&cli.StringFlag{
				Name:  "metrics-listen",
				Usage: "Serve prometheus metrics on this address while running",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			log := c.App.Metadata["logger"].(*zap.Logger)

			if c.IsSet("backend") {
				cfg.Backend = c.String("backend")
			}
			if c.IsSet("attest") {
				cfg.Attest = c.Bool("attest")
			}
			if c.IsSet("metrics-listen") {
				cfg.Metrics.ListenAddress = c.String("metrics-listen")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Metrics.ListenAddress != "" {
				metrics.Serve(cfg.Metrics.ListenAddress, log.Named("metrics"))
			}

			manager, err := accel.NewManager(log.Named("accel"), cfg.Backend)
			if err != nil {
				return err
			}
			defer func() {
				if err := manager.Cleanup(); err != nil {
					log.Warn("backend cleanup failed", zap.Error(err))
				}
			}()

			runner := offload.NewRunner(cfg, log, manager)
			if cfg.Attest {
				key, address, err := keys.LoadPrivateKey(cfg.Node.KeystorePath)
				if err != nil {
					return fmt.Errorf("load node key: %w", err)
				}
				log.Info("attesting runs", zap.String("address", address.Hex()))
				runner.AttestWith(key)
			}

			report, err := runner.Run(c.Context)
			if err != nil {
				return err
			}

			// The result vector is the program's only stdout output.
			return offload.WriteVector(os.Stdout, report.Result)
		},
	}
}
