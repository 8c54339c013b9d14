package commands

import (
	"fmt"
	"strconv"
	"strings"

	"daily-habits-tracker/internal/app"

	"github.com/spf13/cobra"
)

func addAdd(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a habit at the end of the list",
		Example: `
habits add read 10 pages
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return ro.withApp(cmd.Context(), func(a *app.App) error {
				habit, err := a.HabitService().AddHabit(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %q at index %d\n", habit.Name, habit.Position)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addRename(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "rename <index> <name>",
		Short: "Rename the habit at index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")

			return ro.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.HabitService().RenameHabit(cmd.Context(), index, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed habit %d to %q\n", index, name)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addDelete(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the habit at index; later habits move up by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}

			return ro.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.HabitService().DeleteHabit(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted habit %d\n", index)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addDone(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "done <index>",
		Aliases: []string{"complete"},
		Short:   "Mark the habit at index done for today",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}

			return ro.withApp(cmd.Context(), func(a *app.App) error {
				habit, changed, err := a.HabitService().MarkHabitAsDone(cmd.Context(), index)
				if err != nil {
					return err
				}
				if !changed {
					fmt.Fprintf(cmd.OutOrStdout(), "%q is already done today\n", habit.Name)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %q done, streak %d\n", habit.Name, habit.Streak)
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func addList(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List habits with their streak and today's status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ro.withApp(cmd.Context(), func(a *app.App) error {
				statuses, err := a.HabitService().ListHabits(cmd.Context())
				if err != nil {
					return err
				}
				for _, s := range statuses {
					mark := " "
					if s.Done {
						mark = "x"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%d [%s] %s (streak %d)\n", s.Index, mark, s.Name, s.Streak)
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}

func parseIndexArg(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("habit index %q is not a number", raw)
	}
	return index, nil
}
