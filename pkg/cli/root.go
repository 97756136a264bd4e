// Package cli wires the import pipeline, review session and stores into the
// opsboard command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/harrisonrobin/opsboard/pkg/commit"
	"github.com/harrisonrobin/opsboard/pkg/config"
	"github.com/harrisonrobin/opsboard/pkg/google"
	"github.com/harrisonrobin/opsboard/pkg/logger"
	"github.com/harrisonrobin/opsboard/pkg/model"
	"github.com/harrisonrobin/opsboard/pkg/store/sqlite"
	"github.com/spf13/cobra"
)

// backend is a commit store that can also register clients.
type backend interface {
	commit.Store
	CreateClient(ctx context.Context, c *model.Client) error
	ListTasks(ctx context.Context, clientID string) ([]*model.Task, error)
}

type app struct {
	cfg   *config.Config
	log   logger.Logger
	debug bool
	now   func() time.Time
	// openBackend is replaced in tests.
	openBackend func(ctx context.Context, cfg *config.Config) (backend, func() error, error)
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, func() error, error) {
	switch cfg.Backend {
	case config.BackendSheets:
		c, err := google.NewClient(ctx, cfg.SpreadsheetID)
		if err != nil {
			return nil, nil, err
		}
		if err := c.EnsureHeaders(ctx); err != nil {
			return nil, nil, err
		}
		return c, func() error { return nil }, nil
	default:
		s, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
}

// NewRootCmd builds the opsboard command tree.
func NewRootCmd() *cobra.Command {
	a := &app{now: time.Now, openBackend: openBackend}

	root := &cobra.Command{
		Use:           "opsboard",
		Short:         "Import task spreadsheets into the opsboard task list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			level := cfg.LogLevel
			if a.debug {
				level = "debug"
			}
			a.log = logger.New(logger.Config{Level: level, Output: cmd.ErrOrStderr()})
			logger.SetDefault(a.log)
			cmd.SetContext(logger.ContextWithLogger(cmd.Context(), a.log))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.authCmd(),
		a.configCmd(),
		a.sampleCmd(),
		a.clientsCmd(),
		a.importCmd(),
		a.tasksCmd(),
	)
	return root
}

// Execute runs the command tree and returns its error.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
