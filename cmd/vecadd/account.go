package main

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/internal/config"
	"github.com/accelforge/vecadd/internal/keys"
)

func accountCommands() *cli.Command {
	return &cli.Command{
		Name:  "account",
		Usage: "Manage the node key used to attest runs",
		Subcommands: []*cli.Command{
			{
				Name:  "new",
				Usage: "Create a new node key",
				Action: func(c *cli.Context) error {
					cfg := c.App.Metadata["config"].(*config.Config)
					return keys.GenerateKeyFile(cfg.Node.KeystorePath)
				},
			},
			{
				Name:  "get",
				Usage: "Get the node address",
				Action: func(c *cli.Context) error {
					cfg := c.App.Metadata["config"].(*config.Config)
					log := c.App.Metadata["logger"].(*zap.Logger)
					_, address, err := keys.LoadPrivateKey(cfg.Node.KeystorePath)
					if err != nil {
						return err
					}
					log.Info("Account address", zap.String("address", address.Hex()))
					return nil
				},
			},
		},
	}
}
