package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/internal/application/command"
	"github.com/ubaya-hub/student-hub/internal/application/query"
)

func (a *app) insightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insight <nrp>",
		Short: "Suggest two job roles for a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.GetCareerInsight.Handle(ctx, query.GetCareerInsightQuery{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, res.Insight)
					return err
				})
			})
		},
	}
}

func (a *app) refineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refine <aboutMe|experiences|courseList> <text...>",
		Short: "Rewrite profile text in a more professional tone",
		Example: `  hub refine aboutMe "i like robots and also coffee"
  hub refine experiences - < experiences.txt`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := command.ParseRefineField(args[0])
			if err != nil {
				return err
			}

			text := strings.Join(args[1:], " ")
			if text == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.RefineText.Handle(ctx, command.RefineTextCommand{Field: field, Text: text})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					if res.Message != "" {
						if _, err := fmt.Fprintln(cmd.ErrOrStderr(), res.Message); err != nil {
							return err
						}
					}
					_, err := fmt.Fprintln(w, res.Text)
					return err
				})
			})
		},
	}
}
