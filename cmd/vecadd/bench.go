package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/accelforge/vecadd/internal/accel"
	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/offload"
)

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Run the offload pipeline repeatedly and report phase statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Value: 10,
				Usage: "Number of runs",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Compute backend to use (opencl, occa, sim)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			log := c.App.Metadata["logger"].(*zap.Logger)

			count := c.Int("count")
			if count <= 0 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			if c.IsSet("backend") {
				cfg.Backend = c.String("backend")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			manager, err := accel.NewManager(log.Named("accel"), cfg.Backend)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Cleanup() }()

			runner := offload.NewRunner(cfg, log, manager)

			samples := map[string][]float64{}
			record := func(phase string, ms float64) {
				samples[phase] = append(samples[phase], ms)
			}

			for i := 0; i < count; i++ {
				report, err := runner.Run(c.Context)
				if err != nil {
					return fmt.Errorf("run %d of %d: %w", i+1, count, err)
				}
				record("upload", float64(report.Timings.Upload.Microseconds())/1000)
				record("compile", float64(report.Timings.Compile.Microseconds())/1000)
				record("launch", float64(report.Timings.Launch.Microseconds())/1000)
				record("readback", float64(report.Timings.Readback.Microseconds())/1000)
				record("total", float64(report.Timings.Total.Microseconds())/1000)
			}

			fmt.Printf("backend=%s length=%d workgroup=%d runs=%d\n",
				manager.BackendName(), cfg.Vector.Length, cfg.Vector.WorkgroupSize, count)
			fmt.Printf("%-10s %10s %10s %10s %10s\n", "phase", "mean ms", "stddev", "min", "max")
			for _, phase := range []string{"upload", "compile", "launch", "readback", "total"} {
				s := samples[phase]
				fmt.Printf("%-10s %10.3f %10.3f %10.3f %10.3f\n",
					phase, stat.Mean(s, nil), stat.StdDev(s, nil), floats.Min(s), floats.Max(s))
			}
			return nil
		},
	}
}
