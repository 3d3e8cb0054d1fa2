package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dayuer/simplex-bot-go/internal/bots"
	"github.com/dayuer/simplex-bot-go/internal/client"
	"github.com/dayuer/simplex-bot-go/internal/commands"
	"github.com/dayuer/simplex-bot-go/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the daemon and answer chat commands",
	RunE:  runBot,
}

var runQuiet bool

func init() {
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Skip the startup summary")
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	c, err := connectClient(ctx, m)
	if err != nil {
		return err
	}
	defer c.Disconnect()

	if err := prepare(ctx, c); err != nil {
		return err
	}

	registry, err := buildRegistry()
	if err != nil {
		return err
	}
	d := commands.NewDispatcher(c, registry, commands.Options{
		Reaction:   cfg.Bot.Reaction,
		MaxBacklog: cfg.Bot.MaxBacklog(),
		Logger:     logger,
		Metrics:    m,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The metrics server follows the listen loop down.
		defer stop()
		err := d.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr, reg, logger)
		})
	}

	err = g.Wait()
	if readErr := c.Err(); readErr != nil && err == nil {
		err = fmt.Errorf("connection lost: %w", readErr)
	}
	logger.Info("shutting down")
	return err
}

// prepare prints the startup summary and applies the configured daemon settings.
func prepare(ctx context.Context, c *client.Client) error {
	if !runQuiet {
		if err := printSummary(ctx, os.Stdout, c, true); err != nil {
			return fmt.Errorf("startup summary: %w", err)
		}
	}
	if cfg.Bot.Network != nil {
		nc, err := c.Network(ctx, networkSettings(cfg.Bot.Network))
		if err != nil {
			return fmt.Errorf("network settings: %w", err)
		}
		logger.Info("network configured", "socksMode", nc.SocksMode, "socksProxy", nc.SocksProxy)
	}
	if cfg.Bot.AutoAccept {
		if err := c.AutoAccept(ctx, true); err != nil {
			return fmt.Errorf("auto-accept: %w", err)
		}
		logger.Info("auto-accept enabled")
	}
	return nil
}

// buildRegistry registers the stock commands with the configured overrides.
func buildRegistry() (*commands.Registry, error) {
	reg := commands.NewRegistry(cfg.Bot.Prefix)

	overrides, err := commands.LoadOverrides(cfg.Bot.CommandsFile)
	if err != nil {
		return nil, err
	}
	cmds, err := overrides.Apply(bots.Defaults(reg, cfg.Bot.ShowcaseImage))
	if err != nil {
		return nil, err
	}
	for _, c := range cmds {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
