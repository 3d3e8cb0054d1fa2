package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayuer/simplex-bot-go/internal/config"
	"github.com/dayuer/simplex-bot-go/internal/logging"
)

// Version is set at build time.
var Version = "dev"

var (
	configPath string
	loader     = config.NewLoader()

	// Populated by the persistent pre-run of every command.
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "simplexbot",
	Short:         "Command bot for the SimpleX Chat daemon",
	Long:          "simplexbot connects to a running SimpleX Chat daemon over its WebSocket API and answers chat commands.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loader.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logger, err = logging.New(cfg.Logging, nil)
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = Version

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.simplexbot/config.json)")
	pf.String("url", "", "chat daemon WebSocket address")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: text|json")

	for key, flag := range map[string]string{
		"client.url":     "url",
		"logging.level":  "log-level",
		"logging.format": "log-format",
	} {
		if err := loader.BindFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
