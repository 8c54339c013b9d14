package commands

import (
	"context"
	"fmt"

	"daily-habits-tracker/internal/app"
	"daily-habits-tracker/internal/config"
	"daily-habits-tracker/internal/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

// New builds the habits command tree
func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "habits",
		Short:         "Track daily habits and post reminders to Slack.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(ro.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := logger.Init(cfg.Logging, cfg.Service.Name); err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			ro.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&ro.configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config/base.yaml)")

	AddCommands(cmd, ro)
	return cmd
}

// AddCommands registers every subcommand on topLevel
func AddCommands(topLevel *cobra.Command, ro *rootOptions) {
	addServe(topLevel, ro)
	addNotify(topLevel, ro)
	addAdd(topLevel, ro)
	addRename(topLevel, ro)
	addDelete(topLevel, ro)
	addDone(topLevel, ro)
	addList(topLevel, ro)
}

// withApp builds the app for one command and closes it afterwards
func (ro *rootOptions) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, ro.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close resources", "error", err)
		}
	}()

	return fn(a)
}
