package main

import (
	"fmt"

	"github.com/common-nighthawk/go-figure"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/accel"
	"github.com/accelforge/vecadd/internal/config"
)

func devicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List the platforms and devices of a compute backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Compute backend to inspect (opencl, occa, sim)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := c.App.Metadata["config"].(*config.Config)
			log := c.App.Metadata["logger"].(*zap.Logger)

			preferred := cfg.Backend
			if c.IsSet("backend") {
				preferred = c.String("backend")
			}

			manager, err := accel.NewManager(log.Named("accel"), preferred)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Cleanup() }()

			banner := figure.NewFigure("vecadd", "", true)
			banner.Print()
			fmt.Println("")
			fmt.Printf("Backend: %s\n", manager.BackendName())

			platforms, err := manager.Backend().Platforms()
			if err != nil {
				return err
			}
			for _, platform := range platforms {
				fmt.Printf("\nPlatform: %s (%s)\n", platform.Name(), platform.Vendor())
				devices, err := platform.Devices(accel.DeviceAll)
				if err != nil {
					fmt.Printf("  no devices: %v\n", err)
					continue
				}
				for i, device := range devices {
					info := device.Info()
					fmt.Printf("  Device %d: %s\n", i, info.Name)
					fmt.Printf("    Type: %s\n", info.Type)
					if info.Vendor != "" {
						fmt.Printf("    Vendor: %s\n", info.Vendor)
					}
					if info.Version != "" {
						fmt.Printf("    Version: %s\n", info.Version)
					}
					if info.ComputeUnits > 0 {
						fmt.Printf("    Compute units: %d\n", info.ComputeUnits)
					}
					if info.MaxWorkGroupSize > 0 {
						fmt.Printf("    Max work-group size: %d\n", info.MaxWorkGroupSize)
					}
					if info.GlobalMemory > 0 {
						fmt.Printf("    Global memory: %d MB\n", info.GlobalMemory/(1024*1024))
					}
				}
			}
			return nil
		},
	}
}
