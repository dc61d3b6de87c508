package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hbomb79/Grabbr/internal"
	"github.com/hbomb79/Grabbr/pkg/logger"
	"github.com/urfave/cli/v2"
)

var log = logger.Get("Main")

func main() {
	app := &cli.App{
		Name:  "grabbr",
		Usage: "resolve and download remote video resources over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				Value:   internal.DefaultConfigPath(),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "minimum log level (verbose, debug, info, warning, error)",
				Value: "info",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Emit(logger.FATAL, "%s\n", err.Error())
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	level, err := parseLogLevel(cliCtx.String("log-level"))
	if err != nil {
		return err
	}
	logger.SetMinLoggingLevel(level)

	config := internal.GrabbrConfig{}
	configPath := cliCtx.String("config")
	if _, statErr := os.Stat(configPath); statErr == nil {
		if err := config.LoadFromFile(configPath); err != nil {
			return err
		}
	} else if err := config.LoadFromEnv(); err != nil {
		return err
	}

	service, err := internal.New(config)
	if err != nil {
		return fmt.Errorf("failed to initialise Grabbr - %v", err.Error())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return service.Run(ctx)
}

func parseLogLevel(raw string) (logger.LogStatus, error) {
	switch strings.ToLower(raw) {
	case "verbose":
		return logger.VERBOSE, nil
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	}

	return logger.INFO, fmt.Errorf("unknown log level '%s'", raw)
}
