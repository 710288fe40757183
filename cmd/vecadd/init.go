package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/accelforge/vecadd/fixtures"
)

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write the config template to the config path",
		Action: func(c *cli.Context) error {
			path := c.App.Metadata["configPath"].(string)
			log := c.App.Metadata["logger"].(*zap.Logger)

			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
			if err != nil {
				if os.IsExist(err) {
					return fmt.Errorf("config file %s already exists", path)
				}
				return err
			}
			defer f.Close()

			if _, err := f.Write(fixtures.ConfigTemplate); err != nil {
				return err
			}
			log.Info("config template written", zap.String("path", path))
			return nil
		},
	}
}
