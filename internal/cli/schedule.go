package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/schedule"
)

func newScheduleCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage recurring reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newScheduleAddCommand(s),
		newScheduleListCommand(s),
		newScheduleShowCommand(s),
		newScheduleUpdateCommand(s),
		newScheduleDeleteCommand(s),
		newScheduleCheckCommand(s),
		newScheduleMarkRunCommand(s),
		newScheduleSeedCommand(s),
	)
	return cmd
}

func newScheduleAddCommand(s *session) *cobra.Command {
	var req schedule.CreateRequest
	var kind, agent string
	var disabled bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			req.Kind = domain.ScheduleKind(kind)
			req.Agent = domain.Agent(agent)
			if disabled {
				enabled := false
				req.Enabled = &enabled
			}
			created, err := a.Schedules.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Created schedule #%d '%s' at %s (%s) for %s",
				created.ID, created.Name, created.Time, schedule.FormatDays(created.Days), created.Agent)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "Schedule name")
	cmd.Flags().StringVar(&req.Description, "description", "", "Optional description")
	cmd.Flags().StringVar(&kind, "type", string(domain.KindDaily), "Schedule type")
	cmd.Flags().StringVar(&req.Time, "time", "", "Time of day (HH:MM, user timezone)")
	cmd.Flags().StringVar(&req.Days, "days", domain.AllDays, "Cron-style day set, e.g. 1-5 or 0,6")
	cmd.Flags().StringVar(&agent, "agent", string(domain.AgentMax), "Owning agent")
	cmd.Flags().StringVar(&req.Prompt, "prompt", "", "Prompt delivered when the schedule fires")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the schedule paused")
	return cmd
}

func newScheduleListCommand(s *session) *cobra.Command {
	var agent string
	var enabledOnly bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring reports ordered by time of day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			filter := domain.ScheduleFilter{Agent: domain.Agent(strings.ToLower(agent)), EnabledOnly: enabledOnly}
			list, err := a.Schedules.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			tz, err := a.Schedules.Timezone(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				notice(cmd.OutOrStdout(), "No schedules found.")
				return nil
			}
			return writeScheduleTable(cmd.OutOrStdout(), list, tz)
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Only schedules owned by this agent")
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "Only enabled schedules")
	return cmd
}

func writeScheduleTable(w io.Writer, list []domain.Schedule, tz string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Name", "Time", "Days", "Agent", "Status", "Last run"})

	data := make([][]string, 0, len(list))
	for _, sc := range list {
		data = append(data, []string{
			strconv.FormatInt(sc.ID, 10),
			sc.Name,
			sc.Time,
			schedule.FormatDays(sc.Days),
			string(sc.Agent),
			status(sc.Enabled),
			lastRun(sc.LastRunAt),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, _ = dimColor.Fprintf(w, "Times are in %s.\n", tz)
	return nil
}

func status(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "paused"
}

func lastRun(at *time.Time) string {
	if at == nil {
		return "never"
	}
	return at.UTC().Format("2006-01-02 15:04 UTC")
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("Invalid schedule id '%s'.", raw)
	}
	return id, nil
}

func newScheduleShowCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one recurring report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			sc, err := a.Schedules.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Schedule #%d: %s\n", sc.ID, sc.Name)
			if sc.Description != "" {
				fmt.Fprintf(w, "  Description: %s\n", sc.Description)
			}
			fmt.Fprintf(w, "  Type:     %s\n", sc.Kind)
			fmt.Fprintf(w, "  Time:     %s\n", sc.Time)
			fmt.Fprintf(w, "  Days:     %s (%s)\n", schedule.FormatDays(sc.Days), sc.Days)
			fmt.Fprintf(w, "  Agent:    %s\n", sc.Agent)
			fmt.Fprintf(w, "  Status:   %s\n", status(sc.Enabled))
			fmt.Fprintf(w, "  Last run: %s\n", lastRun(sc.LastRunAt))
			fmt.Fprintf(w, "  Prompt:   %s\n", sc.Prompt)
			return nil
		},
	}
}

func newScheduleUpdateCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a recurring report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch := schedulePatchFromFlags(cmd)
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			changes, err := a.Schedules.Update(cmd.Context(), id, patch)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Updated schedule #%d: %s", id, strings.Join(changes, ", "))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("name", "", "New name")
	f.String("description", "", "New description")
	f.String("time", "", "New time of day (HH:MM)")
	f.String("days", "", "New day set")
	f.String("agent", "", "New owning agent")
	f.String("prompt", "", "New prompt")
	f.Bool("enable", false, "Resume the schedule")
	f.Bool("disable", false, "Pause the schedule")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
	return cmd
}

func schedulePatchFromFlags(cmd *cobra.Command) domain.SchedulePatch {
	var patch domain.SchedulePatch
	f := cmd.Flags()
	str := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	patch.Name = str("name")
	patch.Description = str("description")
	patch.Time = str("time")
	patch.Days = str("days")
	patch.Prompt = str("prompt")
	if v := str("agent"); v != nil {
		agent := domain.Agent(*v)
		patch.Agent = &agent
	}
	switch {
	case f.Changed("enable"):
		v, _ := f.GetBool("enable")
		patch.Enabled = &v
	case f.Changed("disable"):
		v, _ := f.GetBool("disable")
		enabled := !v
		patch.Enabled = &enabled
	}
	return patch
}

func newScheduleDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Schedules.Delete(cmd.Context(), id); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Deleted schedule #%d", id)
			return nil
		},
	}
}

func newScheduleCheckCommand(s *session) *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List schedules that are due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			due, err := a.Schedules.Due(cmd.Context(), time.Time{}, domain.Agent(agent))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(due) == 0 {
				notice(w, "Nothing due.")
				return nil
			}
			for _, sc := range due {
				fmt.Fprintf(w, "#%d %s (%s, %s)\n  %s\n", sc.ID, sc.Name, sc.Time, sc.Agent, sc.Prompt)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Agent asking; empty checks every agent")
	return cmd
}

func newScheduleMarkRunCommand(s *session) *cobra.Command {
	var agent string
	cmd := &cobra.Command{
		Use:   "mark-run <id>",
		Short: "Record that a schedule ran now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Schedules.MarkRun(cmd.Context(), id, domain.Agent(agent)); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Marked schedule #%d as run", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Agent that ran a team-wide schedule")
	return cmd
}

func newScheduleSeedCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-defaults",
		Short: "Create the default schedules when none exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			res, err := a.Schedules.SeedDefaults(cmd.Context())
			if err != nil {
				return err
			}
			if res.Existing > 0 {
				notice(cmd.OutOrStdout(), "%s", res.String())
				return nil
			}
			success(cmd.OutOrStdout(), "%s", res.String())
			return nil
		},
	}
}

func newTimezoneCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timezone",
		Short: "Show or set the user timezone schedules run in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configured timezone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			tz, err := a.Schedules.Timezone(cmd.Context())
			if err != nil {
				return err
			}
			writeLine(cmd.OutOrStdout(), tz)
			return nil
		},
	}, &cobra.Command{
		Use:   "set <iana-name>",
		Short: "Set the timezone, e.g. Europe/Berlin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.application(cmd)
			if err != nil {
				return err
			}
			if err := a.Schedules.SetTimezone(cmd.Context(), args[0]); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Timezone set to %s", strings.TrimSpace(args[0]))
			return nil
		},
	})
	return cmd
}
