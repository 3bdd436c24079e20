// Package schedule manages recurring report definitions and decides which of
// them are due in the user's timezone.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

// DueWindow is how long after its scheduled minute a schedule stays due.
const DueWindow = 30 * time.Minute

const dateLayout = "2006-01-02"

// Service implements schedule CRUD, run bookkeeping and the due check.
type Service struct {
	repo     ports.ScheduleRepository
	settings ports.SettingsRepository
	logger   *slog.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the stores.
func NewService(repo ports.ScheduleRepository, settings ports.SettingsRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{repo: repo, settings: settings, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and stores a new schedule.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Schedule, error) {
	req = req.normalized()
	if err := validate.Struct(req); err != nil {
		return domain.Schedule{}, describe(err, map[string]string{
			"Time":  req.Time,
			"Days":  req.Days,
			"Agent": string(req.Agent),
			"Kind":  string(req.Kind),
		})
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	sched := domain.Schedule{
		Name:        req.Name,
		Description: req.Description,
		Kind:        req.Kind,
		Time:        req.Time,
		Days:        req.Days,
		Agent:       req.Agent,
		Prompt:      req.Prompt,
		Enabled:     enabled,
		CreatedAt:   s.now().UTC(),
	}
	id, err := s.repo.CreateSchedule(ctx, sched)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("create schedule: %w", err)
	}
	sched.ID = id
	s.logger.Info("schedule created", "id", id, "name", sched.Name, "time", sched.Time, "days", sched.Days, "agent", sched.Agent)
	return sched, nil
}

// Get loads one schedule.
func (s *Service) Get(ctx context.Context, id int64) (domain.Schedule, error) {
	sched, err := s.repo.GetSchedule(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Schedule{}, err
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("get schedule #%d: %w", id, err)
	}
	return sched, nil
}

// List returns schedules ordered by time of day.
func (s *Service) List(ctx context.Context, filter domain.ScheduleFilter) ([]domain.Schedule, error) {
	filter.Agent = domain.Agent(strings.ToLower(string(filter.Agent)))
	list, err := s.repo.ListSchedules(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return list, nil
}

// Update applies a partial patch. Only supplied fields are validated and an
// empty patch is rejected.
func (s *Service) Update(ctx context.Context, id int64, patch domain.SchedulePatch) ([]string, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var changes []string
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fieldError("Name", name)
		}
		patch.Name = &name
		changes = append(changes, "name → "+name)
	}
	if patch.Time != nil {
		t := strings.TrimSpace(*patch.Time)
		if err := checkField("Time", t, "clock"); err != nil {
			return nil, err
		}
		patch.Time = &t
		changes = append(changes, "time → "+t)
	}
	if patch.Days != nil {
		days := strings.TrimSpace(*patch.Days)
		if err := checkField("Days", days, "dayset"); err != nil {
			return nil, err
		}
		patch.Days = &days
		changes = append(changes, "days → "+FormatDays(days))
	}
	if patch.Agent != nil {
		agent := domain.Agent(strings.ToLower(strings.TrimSpace(string(*patch.Agent))))
		if err := checkField("Agent", string(agent), "agent"); err != nil {
			return nil, err
		}
		patch.Agent = &agent
		changes = append(changes, "agent → "+string(agent))
	}
	if patch.Prompt != nil {
		prompt := strings.TrimSpace(*patch.Prompt)
		if prompt == "" {
			return nil, fieldError("Prompt", prompt)
		}
		patch.Prompt = &prompt
		changes = append(changes, "prompt updated")
	}
	if patch.Enabled != nil {
		if *patch.Enabled {
			changes = append(changes, "enabled")
		} else {
			changes = append(changes, "paused")
		}
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
		changes = append(changes, "description updated")
	}
	if patch.Empty() {
		return nil, domain.Validationf("No changes specified.")
	}

	if err := s.repo.UpdateSchedule(ctx, id, patch); err != nil {
		return nil, fmt.Errorf("update schedule #%d: %w", id, err)
	}
	s.logger.Info("schedule updated", "id", id, "changes", strings.Join(changes, ", "))
	return changes, nil
}

// Delete removes a schedule by id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteSchedule(ctx, id)
	if err != nil {
		return fmt.Errorf("delete schedule #%d: %w", id, err)
	}
	if !deleted {
		return domain.NotFoundf("Schedule #%d not found.", id)
	}
	return nil
}

// MarkRun records that a schedule ran now. For team-wide schedules with a
// named agent it records that agent's completion for today in the user
// timezone; otherwise it overwrites the last-run timestamp.
func (s *Service) MarkRun(ctx context.Context, id int64, agent domain.Agent) error {
	sched, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	agent = domain.Agent(strings.ToLower(strings.TrimSpace(string(agent))))
	if agent != "" && (!agent.Valid() || agent == domain.AgentAll) {
		return fieldError("Agent", string(agent))
	}

	now := s.now()
	if sched.Agent == domain.AgentAll && agent != "" {
		loc, err := s.Location(ctx)
		if err != nil {
			return err
		}
		runDate := now.In(loc).Format(dateLayout)
		if err := s.repo.RecordAgentRun(ctx, id, agent, runDate, now.UTC()); err != nil {
			return fmt.Errorf("record run of schedule #%d by %s: %w", id, agent, err)
		}
		s.logger.Debug("schedule marked run", "id", id, "agent", agent, "date", runDate)
		return nil
	}

	if err := s.repo.SetLastRun(ctx, id, now.UTC()); err != nil {
		return fmt.Errorf("mark schedule #%d run: %w", id, err)
	}
	s.logger.Debug("schedule marked run", "id", id)
	return nil
}

// Due returns enabled schedules whose time arrived less than DueWindow ago
// today, on an allowed day, that have not yet run today. A zero now means
// the service clock. An empty agent disables agent filtering.
func (s *Service) Due(ctx context.Context, now time.Time, agent domain.Agent) ([]domain.Schedule, error) {
	if now.IsZero() {
		now = s.now()
	}
	agent = domain.Agent(strings.ToLower(strings.TrimSpace(string(agent))))

	loc, err := s.Location(ctx)
	if err != nil {
		return nil, err
	}
	local := now.In(loc)
	today := local.Format(dateLayout)
	minuteOfDay := local.Hour()*60 + local.Minute()

	candidates, err := s.repo.ListSchedules(ctx, domain.ScheduleFilter{EnabledOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	var due []domain.Schedule
	for _, sched := range candidates {
		if agent != "" && sched.Agent != agent && sched.Agent != domain.AgentAll {
			continue
		}

		days, err := ParseDays(sched.Days)
		if err != nil {
			s.logger.Warn("skipping schedule with invalid days", "id", sched.ID, "days", sched.Days)
			continue
		}
		if !days.Contains(local.Weekday()) {
			continue
		}

		scheduled, err := minuteOf(sched.Time)
		if err != nil {
			s.logger.Warn("skipping schedule with invalid time", "id", sched.ID, "time", sched.Time)
			continue
		}
		elapsed := minuteOfDay - scheduled
		if elapsed < 0 || elapsed >= int(DueWindow/time.Minute) {
			continue
		}

		ran, err := s.ranToday(ctx, sched, agent, today, loc)
		if err != nil {
			return nil, err
		}
		if ran {
			continue
		}
		due = append(due, sched)
	}
	return due, nil
}

func (s *Service) ranToday(ctx context.Context, sched domain.Schedule, agent domain.Agent, today string, loc *time.Location) (bool, error) {
	if sched.Agent == domain.AgentAll && agent != "" {
		ran, err := s.repo.HasAgentRun(ctx, sched.ID, agent, today)
		if err != nil {
			return false, fmt.Errorf("check run of schedule #%d by %s: %w", sched.ID, agent, err)
		}
		return ran, nil
	}
	if sched.LastRunAt == nil {
		return false, nil
	}
	return sched.LastRunAt.In(loc).Format(dateLayout) == today, nil
}

func minuteOf(clock string) (int, error) {
	if !clockPattern.MatchString(clock) {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	hour, _ := strconv.Atoi(clock[:2])
	minute, _ := strconv.Atoi(clock[3:])
	return hour*60 + minute, nil
}
