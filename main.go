package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erikmagkekse/craftui/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	level := zerolog.InfoLevel
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if parsed, err := zerolog.ParseLevel(l); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg(model.AppName + " failed")
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    model.AppName,
		Usage:   "console for the craft interface of radio equipment",
		Version: version + " (" + commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "device base URL (overrides CRAFT_BASE_URL)"},
			&cli.StringFlag{Name: "peer", Usage: "peer routing suffix appended to content.json (overrides CRAFT_PEER_SUFFIX)"},
			&cli.StringFlag{Name: "layout", Usage: "layout file (overrides CRAFT_LAYOUT)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "watch",
				Usage:  "poll the device and serve the web console",
				Action: runWatch,
			},
			{
				Name:  "status",
				Usage: "poll once and print the rendered fields",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the document as JSON"},
				},
				Action: runStatus,
			},
			{
				Name:      "set",
				Usage:     "set one configuration field",
				ArgsUsage: "<key> <value>",
				Action:    runSet,
			},
			{
				Name:      "activate",
				Usage:     "send an activation for a key, e.g. to apply pending changes",
				ArgsUsage: "<key>",
				Action:    runActivate,
			},
			{
				Name:      "passwd",
				Usage:     "change a password; prompts for the admin, new and confirm values",
				ArgsUsage: "<key>",
				Action:    runPasswd,
			},
		},
	}
}
