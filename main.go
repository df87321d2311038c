package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"gitlab.com/acervero/RoRoSentinel/bot"
	"gitlab.com/acervero/RoRoSentinel/helpers"
)

func main() {
	sentinel := bot.Sentinel{}

	app := &cli.App{
		Name:  "roro-sentinel",
		Usage: "risk-on/risk-off market state monitor and trade gatekeeper",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML settings file",
				Value:   "settings.yaml",
			},
		},
		Action: sentinel.Run,
	}

	if err := app.Run(os.Args); err != nil {
		helpers.Logger.Fatalln(err)
	}
}
