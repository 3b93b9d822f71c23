package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const configMetadataKey = "config"

var root = []*cli.Command{
	deriveCommand,
	metasCommand,
	simulateCommand,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "burnhookctl",
		Usage:    "Inspect and simulate the burn hook program",
		Commands: root,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "configuration file path",
				Value: "config.yaml",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "overrides the configured log level",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(cctx *cli.Context) error {
			config, err := loadConfig(cctx.String("config"))
			if err != nil {
				return err
			}
			if cctx.IsSet("log-level") {
				config.LogLevel = cctx.String("log-level")
			}

			configureLogger(config)

			cctx.App.Metadata[configMetadataKey] = config
			return nil
		},
	}
}

func getConfig(cctx *cli.Context) *cliConfig {
	config, ok := cctx.App.Metadata[configMetadataKey].(*cliConfig)
	if !ok {
		defaults := defaultConfig
		return &defaults
	}
	return config
}

// Command output goes to stdout, so logs are kept on stderr
func configureLogger(config *cliConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
