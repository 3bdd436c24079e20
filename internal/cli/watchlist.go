package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/rules"
	"ResearchAssistant/internal/watchlist"
)

func newWatchlistCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage tracked tickers and their alert rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newWatchlistAddCommand(s),
		newWatchlistRemoveCommand(s),
		newWatchlistShowCommand(s),
		newWatchlistSetRuleCommand(s),
		newWatchlistResetRulesCommand(s),
		newWatchlistSetGlobalCommand(s),
		newWatchlistSetDirectiveCommand(s),
	)
	return cmd
}

func newWatchlistAddCommand(s *session) *cobra.Command {
	var req watchlist.AddRequest
	cmd := &cobra.Command{
		Use:   "add <symbol> <company name>",
		Short: "Start tracking a ticker",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			req.Symbol = args[0]
			req.Name = strings.Join(args[1:], " ")
			t, err := a.Watchlist.Add(cmd.Context(), req)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Added $%s (%s) to your watchlist", t.Symbol, t.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Theme, "theme", "", "Research theme")
	cmd.Flags().StringVar(&req.Directive, "directive", "", "Research directive")
	cmd.Flags().BoolVar(&req.ExploreAdjacent, "explore-adjacent", false, "Also consider adjacent tickers")
	return cmd
}

func newWatchlistRemoveCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <symbol>",
		Short: "Stop tracking a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Watchlist.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Removed $%s from your watchlist", domain.NormalizeSymbol(args[0]))
			return nil
		},
	}
}

func newWatchlistShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show [symbol]",
		Short: "Show the watchlist, or one ticker's effective rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(args) == 1 {
				t, err := a.Watchlist.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				effective, err := a.Watchlist.EffectiveRules(cmd.Context(), t.Symbol)
				if err != nil {
					return err
				}
				writeTickerDetail(w, t, effective)
				return nil
			}

			entries, settings, err := a.Watchlist.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				notice(w, "Your watchlist is empty.")
			} else if err := writeWatchlistTable(w, entries); err != nil {
				return err
			}
			fmt.Fprintf(w, "Alert threshold: %d/10 | cheap model: %s | strong model: %s\n",
				settings.SignificanceThreshold, settings.CheapModel, settings.StrongModel)
			return nil
		},
	}
}

func writeTickerDetail(w io.Writer, t domain.Ticker, effective domain.RuleSet) {
	fmt.Fprintf(w, "$%s (%s)\n", t.Symbol, t.Name)
	if t.Theme != "" {
		fmt.Fprintf(w, "  Theme: %s\n", t.Theme)
	}
	if t.Directive != "" {
		fmt.Fprintf(w, "  Directive: %s\n", t.Directive)
	}
	if t.ExploreAdjacent {
		writeLine(w, "  Explores adjacent tickers")
	}
	writeLine(w, "  Rules:")
	for _, name := range rules.SortedNames(effective) {
		marker := ""
		if _, ok := t.Rules[name]; ok {
			marker = " (custom)"
		}
		fmt.Fprintf(w, "    %s%s\n", rules.Label(name, effective[name]), marker)
	}
}

func writeWatchlistTable(w io.Writer, entries []watchlist.Entry) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Symbol", "Company", "Theme", "Custom rules"})

	data := make([][]string, 0, len(entries))
	for _, e := range entries {
		var custom []string
		for _, name := range rules.SortedNames(e.Effective) {
			if e.Overridden[name] {
				custom = append(custom, fmt.Sprintf("%s=%s", name, e.Effective[name]))
			}
		}
		overrides := "-"
		if len(custom) > 0 {
			overrides = strings.Join(custom, ", ")
		}
		data = append(data, []string{"$" + e.Ticker.Symbol, e.Ticker.Name, e.Ticker.Theme, overrides})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func newWatchlistSetRuleCommand(s *session) *cobra.Command {
	var global bool
	cmd := &cobra.Command{
		Use:   "set-rule [symbol] <rule> <value>",
		Short: "Override an alert rule for a ticker, or the default with --default",
		Args: func(cmd *cobra.Command, args []string) error {
			if global {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if global {
				name, value, err := a.Watchlist.SetDefaultRule(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Default %s", rules.Label(name, value))
				return nil
			}
			name, value, err := a.Watchlist.SetRule(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "$%s %s", domain.NormalizeSymbol(args[0]), rules.Label(name, value))
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "default", false, "Change the default applied to every ticker")
	return cmd
}

func newWatchlistResetRulesCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-rules <symbol>",
		Short: "Drop every rule override for a ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Watchlist.ResetRules(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "$%s now uses the default rules", domain.NormalizeSymbol(args[0]))
			return nil
		},
	}
}

func newWatchlistSetGlobalCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "set-global <setting> <value>",
		Short: "Set significance_threshold, cheap_model or strong_model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Watchlist.SetGlobal(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "%s = %s", strings.ToLower(strings.TrimSpace(args[0])), strings.TrimSpace(args[1]))
			return nil
		},
	}
}

func newWatchlistSetDirectiveCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-directive <symbol>",
		Short: "Change a ticker's research theme, directive or adjacency flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.DirectivePatch
			f := cmd.Flags()
			if f.Changed("theme") {
				v, _ := f.GetString("theme")
				patch.Theme = &v
			}
			if f.Changed("directive") {
				v, _ := f.GetString("directive")
				patch.Directive = &v
			}
			if f.Changed("explore-adjacent") {
				v, _ := f.GetBool("explore-adjacent")
				patch.ExploreAdjacent = &v
			}

			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			changes, err := a.Watchlist.SetDirective(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "$%s: %s", domain.NormalizeSymbol(args[0]), strings.Join(changes, ", "))
			return nil
		},
	}
	cmd.Flags().String("theme", "", "Research theme; empty clears it")
	cmd.Flags().String("directive", "", "Research directive; empty clears it")
	cmd.Flags().Bool("explore-adjacent", false, "Consider adjacent tickers")
	return cmd
}
