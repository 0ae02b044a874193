package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/internal/application/command"
)

// errNeedsConfirmation guards the destructive commands.
var errNeedsConfirmation = errors.New("this removes data; run again with --yes to confirm")

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Theme and data management",
	}
	cmd.AddCommand(a.settingsThemeCmd(), a.settingsResetCmd())
	return cmd
}

func (a *app) settingsThemeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [day|night|toggle]",
		Short:     "Show or change the theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"day", "night", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				if len(args) == 0 {
					res, err := hub.Queries.GetTheme.Handle(ctx)
					if err != nil {
						return err
					}
					return a.print(cmd, res, func(w io.Writer) error {
						_, err := fmt.Fprintln(w, res.Theme)
						return err
					})
				}

				set := command.SetThemeCommand{Theme: args[0], Toggle: args[0] == "toggle"}
				res, err := hub.Commands.SetTheme.Handle(ctx, set)
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Theme set to %s.\n", res.Theme)
					return err
				})
			})
		},
	}
}

func (a *app) settingsResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the directory, friends and theme; the seed data returns on next use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				if err := hub.Commands.ResetData.Handle(ctx); err != nil {
					return err
				}
				return a.print(cmd, map[string]bool{"reset": true}, func(w io.Writer) error {
					_, err := io.WriteString(w, "All data cleared.\n")
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}
