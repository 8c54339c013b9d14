package commands

import (
	"fmt"

	"daily-habits-tracker/internal/app"

	"github.com/spf13/cobra"
)

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Slack interactions, gRPC health and the notify schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ro.withApp(cmd.Context(), func(a *app.App) error {
				return a.Run()
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addNotify(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Post the habit summary once, unless every habit is done",
		Example: `
# from an external scheduler
habits notify --config /etc/habits/base.yaml
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ro.withApp(cmd.Context(), func(a *app.App) error {
				outcome, err := a.NotifyScheduler().RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "summary %s\n", outcome)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
