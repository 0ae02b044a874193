package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/internal/application/command"
	"github.com/ubaya-hub/student-hub/internal/application/query"
)

func (a *app) friendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "friends",
		Aliases: []string{"friend", "f"},
		Short:   "Manage your friends list",
	}
	cmd.AddCommand(
		a.friendsListCmd(),
		a.friendsAddCmd(),
		a.friendsCheckCmd(),
		a.friendsMailCmd(),
		a.friendsResetCmd(),
	)
	return cmd
}

func (a *app) friendsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List friends in the order they were added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.ListFriends.Handle(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					if res.Total == 0 {
						_, err := io.WriteString(w, "No friends yet.\n")
						return err
					}
					return writeStudentTable(w, res.Friends)
				})
			})
		},
	}
}

func (a *app) friendsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <nrp>",
		Short: "Add a student to your friends; adding twice changes nothing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.AddFriend.Handle(ctx, command.AddFriendCommand{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					if !res.Added {
						_, err := fmt.Fprintf(w, "%s is already a friend.\n", args[0])
						return err
					}
					_, err := fmt.Fprintf(w, "Added %s. You have %d friends.\n", args[0], res.TotalCount)
					return err
				})
			})
		},
	}
}

func (a *app) friendsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <nrp>",
		Short: "Show whether a student is a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.IsFriend.Handle(ctx, query.IsFriendQuery{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s: %s\n", res.NRP, res.State)
					return err
				})
			})
		},
	}
}

func (a *app) friendsMailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mail <nrp>",
		Short: "Print a mailto: link greeting a friend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.ComposeFriendEmail.Handle(ctx, query.ComposeFriendEmailQuery{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, res.URL)
					return err
				})
			})
		},
	}
}

func (a *app) friendsResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove every friend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errNeedsConfirmation
			}
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.ResetFriends.Handle(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]int{"removed": res.Removed}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Removed %d friends.\n", res.Removed)
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}
