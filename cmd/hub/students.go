package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/internal/application/command"
	"github.com/ubaya-hub/student-hub/internal/application/query"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
)

func (a *app) studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "students",
		Aliases: []string{"student", "s"},
		Short:   "Browse and edit the student directory",
	}
	cmd.AddCommand(
		a.studentsListCmd(),
		a.studentsGetCmd(),
		a.studentsSearchCmd(),
		a.studentsAddCmd(),
		a.studentsUpdateCmd(),
		a.studentsDeleteCmd(),
		a.studentsPhotoCmd(),
	)
	return cmd
}

func (a *app) studentsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every student in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.ListStudents.Handle(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					return writeStudentTable(w, res.Students)
				})
			})
		},
	}
}

func (a *app) studentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <nrp>",
		Short: "Show one student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				s, err := hub.Queries.GetStudent.Handle(ctx, query.GetStudentQuery{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, s, func(w io.Writer) error {
					return writeStudentCard(w, *s)
				})
			})
		},
	}
}

func (a *app) studentsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find students by name, NRP or program",
		Long: `Search matches the query case-insensitively against name and NRP, and
as an exact code against the program. An empty query lists everyone.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Queries.SearchStudents.Handle(ctx, query.SearchStudentsQuery{Query: q})
				if err != nil {
					return err
				}
				return a.print(cmd, res, func(w io.Writer) error {
					return writeStudentTable(w, res.Students)
				})
			})
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// add / update
// ─────────────────────────────────────────────────────────────────────────────

// studentFlags binds one flag per Student field.
type studentFlags struct {
	nrp, name, email, program   string
	about, courses, experiences string
	photoURL                    string
}

func (f *studentFlags) register(fs *pflag.FlagSet, withNRP bool) {
	if withNRP {
		fs.StringVar(&f.nrp, "nrp", "", "Student number (primary key)")
	}
	fs.StringVar(&f.name, "name", "", "Full name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.program, "program", "", "Program code: DSAI, NCS, IMES, DMT or GD")
	fs.StringVar(&f.about, "about", "", "About me")
	fs.StringVar(&f.courses, "courses", "", "Course list")
	fs.StringVar(&f.experiences, "experiences", "", "Experiences")
	fs.StringVar(&f.photoURL, "photo-url", "", "Photo URL (a placeholder is used when empty)")
}

// apply copies every flag the user set onto s.
func (f *studentFlags) apply(fs *pflag.FlagSet, s *student.Student) error {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("nrp", &s.NRP, strings.TrimSpace(f.nrp))
	set("name", &s.Name, f.name)
	set("email", &s.Email, f.email)
	set("about", &s.AboutMe, f.about)
	set("courses", &s.CourseList, f.courses)
	set("experiences", &s.Experiences, f.experiences)
	set("photo-url", &s.PhotoURL, f.photoURL)

	if fs.Changed("program") {
		p, err := student.ParseProgram(f.program)
		if err != nil {
			return err
		}
		s.Program = p
	}
	return nil
}

func (a *app) studentsAddCmd() *cobra.Command {
	var f studentFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new student",
		Example: `  hub students add --nrp 160422001 --name "Ayu Lestari" \
    --email ayu@ubaya.net --program DSAI`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var s student.Student
			if err := f.apply(cmd.Flags(), &s); err != nil {
				return err
			}
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.CreateStudent.Handle(ctx, command.CreateStudentCommand{Student: s})
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]any{"student": res.Student, "total": res.Total}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Registered %s (%s). Directory now has %d students.\n",
						res.Student.Name, res.Student.NRP, res.Total)
					return err
				})
			})
		},
	}
	f.register(cmd.Flags(), true)
	_ = cmd.MarkFlagRequired("nrp")
	return cmd
}

func (a *app) studentsUpdateCmd() *cobra.Command {
	var f studentFlags

	cmd := &cobra.Command{
		Use:   "update <nrp>",
		Short: "Edit a student; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nrp := args[0]
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				current, err := hub.Queries.GetStudent.Handle(ctx, query.GetStudentQuery{NRP: nrp})
				if err != nil {
					return err
				}
				s := *current
				if err := f.apply(cmd.Flags(), &s); err != nil {
					return err
				}

				res, err := hub.Commands.UpdateStudent.Handle(ctx, command.UpdateStudentCommand{NRP: nrp, Student: s})
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]any{"student": res.Student, "photoChanged": res.PhotoChanged}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Updated %s (%s).\n", res.Student.Name, res.Student.NRP)
					return err
				})
			})
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func (a *app) studentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <nrp>",
		Aliases: []string{"rm"},
		Short:   "Remove a student; removing a missing one is not an error",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.DeleteStudent.Handle(ctx, command.DeleteStudentCommand{NRP: args[0]})
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]bool{"deleted": res.Deleted}, func(w io.Writer) error {
					msg := "Deleted " + args[0] + ".\n"
					if !res.Deleted {
						msg = "No student " + args[0] + "; nothing to delete.\n"
					}
					_, err := io.WriteString(w, msg)
					return err
				})
			})
		},
	}
}

func (a *app) studentsPhotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <nrp> <file|->",
		Short: "Embed an image file as the student's photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}
			return a.withHub(cmd, func(ctx context.Context, hub *application.Hub) error {
				res, err := hub.Commands.UploadPhoto.Handle(ctx, command.UploadPhotoCommand{NRP: args[0], Data: data})
				if err != nil {
					return err
				}
				out := map[string]any{"student": res.Student, "mimeType": res.MIMEType, "size": res.Size}
				return a.print(cmd, out, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Stored %s photo (%d bytes) for %s.\n", res.MIMEType, res.Size, res.Student.NRP)
					return err
				})
			})
		},
	}
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}
