// Package cli is the command-line surface over the research assistant
// services.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ResearchAssistant/internal/app"
	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/logging"
)

var version = "dev"

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.FgHiBlack)
)

// session lazily builds the application once per command invocation.
type session struct {
	load func(ctx context.Context) (*app.Application, error)
	app  *app.Application
}

func (s *session) application(cmd *cobra.Command) (*app.Application, error) {
	if s.app != nil {
		return s.app, nil
	}
	a, err := s.load(cmd.Context())
	if err != nil {
		return nil, err
	}
	s.app = a
	return a, nil
}

func (s *session) close() error {
	if s.app == nil {
		return nil
	}
	return s.app.Close()
}

// Execute loads configuration and runs the command tree.
func Execute(ctx context.Context) error {
	s := &session{load: func(ctx context.Context) (*app.Application, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return app.New(ctx, cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
	}}
	defer func() { _ = s.close() }()

	return newRootCommand(s).ExecuteContext(ctx)
}

func newRootCommand(s *session) *cobra.Command {
	root := &cobra.Command{
		Use:           "researchassistant",
		Short:         "Stock research assistant: watchlist, significance alerts and scheduled reports",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(
		newScheduleCommand(s),
		newTimezoneCommand(s),
		newWatchlistCommand(s),
		newAnalyzeCommand(s),
		newHeartbeatCommand(s),
		newMigrateCommand(s),
	)
	return root
}

func success(w io.Writer, format string, args ...any) {
	_, _ = okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func notice(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, format+"\n", args...)
}

func writeLine(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
