package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/ubaya-hub/student-hub/config"
	"github.com/ubaya-hub/student-hub/internal/application"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// app carries the flag values and everything PersistentPreRunE builds from
// them. One app backs one command tree.
type app struct {
	configPath string
	driver     string
	sqlitePath string
	jsonOutput bool
	verbose    bool

	logOut io.Writer

	cfg *config.Config
	log *logger.Logger
}

// newRootCmd builds the command tree. Logs go to logOut so stdout stays
// clean for command output.
func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{logOut: logOut}

	root := &cobra.Command{
		Use:   "hub",
		Short: "Student Hub - campus directory and friends list",
		Long: `Student Hub keeps a directory of students, a personal friends list
and a theme preference in one store (SQLite by default).

Run "hub serve" for the JSON API, or use the other commands to work with
the same store from the terminal.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML config file (default: $HUB_CONFIG)")
	flags.StringVar(&a.driver, "driver", "", "Storage driver: memory, sqlite, redis, postgres, mongo")
	flags.StringVar(&a.sqlitePath, "sqlite-path", "", "SQLite database file")
	flags.BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.serveCmd(),
		a.studentsCmd(),
		a.friendsCmd(),
		a.settingsCmd(),
		a.insightCmd(),
		a.refineCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.driver != "" {
		cfg.Storage.Driver = a.driver
	}
	if a.sqlitePath != "" {
		cfg.Storage.SQLitePath = a.sqlitePath
	}
	if a.driver != "" || a.sqlitePath != "" {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}

	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Output:    a.logOut,
		Level:     level,
		Format:    cfg.Observability.LogFormat,
		AddCaller: cfg.App.Debug,
	}).With(
		logger.String("app", cfg.App.Name),
		logger.String("env", string(cfg.App.Environment)),
	)
	return nil
}

// withHub boots the runtime, runs fn against the hub and tears it down.
func (a *app) withHub(cmd *cobra.Command, fn func(ctx context.Context, hub *application.Hub) error) error {
	ctx := cmd.Context()

	rt, err := a.bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.shutdown(rt)

	return fn(ctx, rt.hub)
}

func (a *app) shutdown(rt *runtime) {
	if err := rt.Close(); err != nil {
		a.log.Warn("runtime shutdown", logger.Err(err))
	}
	_ = a.log.Sync()
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(cmd, map[string]string{
				"name":    a.cfg.App.Name,
				"version": a.cfg.App.Version,
			}, func(w io.Writer) error {
				_, err := io.WriteString(w, a.cfg.App.Name+" "+a.cfg.App.Version+"\n")
				return err
			})
		},
	}
}
