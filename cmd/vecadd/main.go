package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/logger"
)

func main() {
	var configPath string
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:     "vecadd",
		Usage:    "Offload an element-wise vector addition to a compute accelerator",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Value:       config.DefaultPath,
				Usage:       "Path to the config file",
				EnvVars:     []string{"VECADD_CONFIG"},
				Destination: &configPath,
			},
		},
		Before: func(c *cli.Context) error {
			var cfg *config.Config
			var err error
			// An explicitly named config file must exist, except for init,
			// which is how that file gets created. The default path falls
			// back to built-in defaults.
			if c.IsSet("config") && c.Args().First() != "init" {
				cfg, err = config.LoadConfig(configPath)
			} else {
				cfg, err = config.LoadOrDefault(configPath)
			}
			if err != nil {
				return err
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("cli")
			c.App.Metadata["config"] = cfg
			c.App.Metadata["configPath"] = configPath
			c.App.Metadata["logger"] = zapLogger
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			devicesCommand(),
			benchCommand(),
			initCommand(),
			accountCommands(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
