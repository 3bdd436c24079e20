package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ResearchAssistant/internal/alert"
	"ResearchAssistant/internal/analysis"
	"ResearchAssistant/internal/domain"
)

func newAnalyzeCommand(s *session) *cobra.Command {
	var ticker, dataPath, company string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a research document for a ticker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			symbol := domain.NormalizeSymbol(ticker)
			if symbol == "" {
				return fmt.Errorf("--ticker is required")
			}
			document, err := readDocument(cmd.InOrStdin(), dataPath)
			if err != nil {
				return err
			}

			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			settings, err := a.Watchlist.Settings(ctx)
			if err != nil {
				return err
			}

			effective, err := a.Watchlist.EffectiveRules(ctx, symbol)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				if effective, err = a.Watchlist.DefaultRules(ctx); err != nil {
					return err
				}
			case err != nil:
				return err
			}
			if company == "" {
				if t, err := a.Watchlist.Find(ctx, symbol); err == nil {
					company = t.Name
				}
			}

			result := a.Analyzer.Analyze(ctx, analysis.Request{
				Ticker:   symbol,
				Company:  company,
				Document: document,
				Rules:    effective,
				Settings: settings,
			})

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if !result.Success {
				return fmt.Errorf("analysis of $%s failed (%s): %s", symbol, result.Failure, result.Error)
			}
			if alert.ShouldAlert(result, settings.SignificanceThreshold) {
				writeLine(w, alert.Format(result))
				return nil
			}
			fmt.Fprintf(w, "$%s scored %d/10, below the alert threshold of %d.\n%s\n",
				symbol, result.Score(), settings.SignificanceThreshold, result.Verdict.Summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "Ticker symbol")
	cmd.Flags().StringVar(&dataPath, "data", "-", "Research document path, - for stdin")
	cmd.Flags().StringVar(&company, "company", "", "Company name when the ticker is not tracked")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full analysis as JSON")
	return cmd
}

func readDocument(stdin io.Reader, path string) (string, error) {
	var raw []byte
	var err error
	if path == "" || path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read research data: %w", err)
	}
	doc := strings.TrimSpace(string(raw))
	if doc == "" {
		return "", domain.Validationf("Research data is empty.")
	}
	return doc, nil
}

func newHeartbeatCommand(s *session) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Run due schedules and analyze the watchlist on the configured cron",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if !once {
				return a.Run(cmd.Context(), true)
			}

			ctx := cmd.Context()
			ran, err := a.Heartbeat.RunDueSchedules(ctx, a.HeartbeatAgent())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, sc := range ran {
				success(w, "Dispatched schedule #%d '%s'", sc.ID, sc.Name)
			}
			report, err := a.Heartbeat.Run(ctx)
			if err != nil {
				return err
			}
			writeLine(w, report.Summary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single round and exit")
	return cmd
}

func newMigrateCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Migrate(cmd.Context()); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Database is up to date (%s)", a.Backend())
			return nil
		},
	}
}
