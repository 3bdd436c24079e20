package schedule

import (
	"context"
	"fmt"
	"strings"

	"ResearchAssistant/internal/domain"
)

var defaultSchedules = []CreateRequest{
	{
		Name: "Morning Briefing",
		Description: "Daily morning briefing covering overnight developments, " +
			"current theses, conviction changes, and team activity.",
		Kind:  domain.KindDaily,
		Time:  "08:00",
		Days:  "1-5",
		Agent: domain.AgentMax,
		Prompt: "Deliver your morning briefing. Cover ALL tickers on the watchlist: " +
			"overnight developments, your current thesis for each, conviction " +
			"level changes, team activity summary (Nova's articles, Luna's social " +
			"signals, Ace's technical signals), and what the team should focus on " +
			"today. End with a question to the user.",
	},
	{
		Name: "Evening Wrap",
		Description: "Daily evening wrap-up summarizing the day's research, " +
			"alerts, and any shifts in outlook.",
		Kind:  domain.KindDaily,
		Time:  "18:00",
		Days:  "1-5",
		Agent: domain.AgentMax,
		Prompt: "Deliver your evening wrap-up. Summarize today's research activity " +
			"across the team: key findings from Nova, sentiment shifts from Luna, " +
			"technical signals from Ace. Highlight any thesis changes or new " +
			"developments. Note any tickers that were quiet. Briefly outline " +
			"what to watch for overnight.",
	},
}

// SeedResult reports what SeedDefaults did.
type SeedResult struct {
	Existing int
	Created  []string
}

func (r SeedResult) String() string {
	if r.Existing > 0 {
		return fmt.Sprintf("Schedules already exist (%d found). Skipping seed.", r.Existing)
	}
	return fmt.Sprintf("Seeded %d default schedule(s): %s", len(r.Created), strings.Join(r.Created, ", "))
}

// SeedDefaults creates the default schedules when none exist.
func (s *Service) SeedDefaults(ctx context.Context) (SeedResult, error) {
	count, err := s.repo.CountSchedules(ctx)
	if err != nil {
		return SeedResult{}, fmt.Errorf("count schedules: %w", err)
	}
	if count > 0 {
		return SeedResult{Existing: count}, nil
	}

	var result SeedResult
	for _, req := range defaultSchedules {
		sched, err := s.Create(ctx, req)
		if err != nil {
			return result, fmt.Errorf("seed %s: %w", req.Name, err)
		}
		result.Created = append(result.Created, sched.Name)
	}
	return result, nil
}
