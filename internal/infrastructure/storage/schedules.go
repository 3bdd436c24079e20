package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

var _ ports.ScheduleRepository = (*Store)(nil)

var scheduleColumns = []string{
	"id", "name", "description", "schedule_type", "time_of_day", "days",
	"agent", "prompt", "enabled", "last_run_at", "created_at",
}

// CreateSchedule inserts a schedule and returns its id.
func (s *Store) CreateSchedule(ctx context.Context, sched domain.Schedule) (int64, error) {
	row, err := s.queryRow(ctx, s.sb.Insert("scheduled_updates").
		Columns("name", "description", "schedule_type", "time_of_day", "days", "agent", "prompt", "enabled", "created_at").
		Values(sched.Name, nullString(sched.Description), string(sched.Kind), sched.Time, sched.Days,
			string(sched.Agent), sched.Prompt, sched.Enabled, formatTime(sched.CreatedAt)).
		Suffix("RETURNING id"))
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert schedule: %w", err)
	}
	return id, nil
}

// GetSchedule loads one schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id int64) (domain.Schedule, error) {
	row, err := s.queryRow(ctx, s.sb.Select(scheduleColumns...).From("scheduled_updates").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Schedule{}, err
	}
	sched, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Schedule{}, domain.NotFoundf("Schedule #%d not found.", id)
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("select schedule: %w", err)
	}
	return sched, nil
}

// ListSchedules returns schedules ordered by time of day, then id.
func (s *Store) ListSchedules(ctx context.Context, filter domain.ScheduleFilter) ([]domain.Schedule, error) {
	q := s.sb.Select(scheduleColumns...).From("scheduled_updates").OrderBy("time_of_day ASC", "id ASC")
	if filter.Agent != "" {
		q = q.Where(sq.Eq{"agent": string(filter.Agent)})
	}
	if filter.EnabledOnly {
		q = q.Where(sq.Eq{"enabled": true})
	}

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateSchedule writes the non-nil patch fields in one statement.
func (s *Store) UpdateSchedule(ctx context.Context, id int64, patch domain.SchedulePatch) error {
	set := map[string]any{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = nullString(*patch.Description)
	}
	if patch.Time != nil {
		set["time_of_day"] = *patch.Time
	}
	if patch.Days != nil {
		set["days"] = *patch.Days
	}
	if patch.Agent != nil {
		set["agent"] = string(*patch.Agent)
	}
	if patch.Prompt != nil {
		set["prompt"] = *patch.Prompt
	}
	if patch.Enabled != nil {
		set["enabled"] = *patch.Enabled
	}
	if len(set) == 0 {
		return nil
	}

	res, err := s.exec(ctx, s.sb.Update("scheduled_updates").SetMap(set).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("Schedule #%d not found.", id)
	}
	return nil
}

// DeleteSchedule removes a schedule; run markers cascade.
func (s *Store) DeleteSchedule(ctx context.Context, id int64) (bool, error) {
	res, err := s.exec(ctx, s.sb.Delete("scheduled_updates").Where(sq.Eq{"id": id}))
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// CountSchedules counts every stored schedule.
func (s *Store) CountSchedules(ctx context.Context) (int, error) {
	row, err := s.queryRow(ctx, s.sb.Select("COUNT(*)").From("scheduled_updates"))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count schedules: %w", err)
	}
	return n, nil
}

// SetLastRun overwrites a schedule's last-run timestamp.
func (s *Store) SetLastRun(ctx context.Context, id int64, at time.Time) error {
	res, err := s.exec(ctx, s.sb.Update("scheduled_updates").Set("last_run_at", formatTime(at)).Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("set last run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("Schedule #%d not found.", id)
	}
	return nil
}

// RecordAgentRun upserts the (schedule, agent, date) completion marker.
func (s *Store) RecordAgentRun(ctx context.Context, id int64, agent domain.Agent, runDate string, at time.Time) error {
	_, err := s.exec(ctx, s.sb.Insert("schedule_agent_runs").
		Columns("schedule_id", "agent", "run_date", "run_at").
		Values(id, string(agent), runDate, formatTime(at)).
		Suffix("ON CONFLICT (schedule_id, agent, run_date) DO UPDATE SET run_at = excluded.run_at"))
	if err != nil {
		return fmt.Errorf("upsert agent run: %w", err)
	}
	return nil
}

// HasAgentRun reports whether agent completed the schedule on runDate.
func (s *Store) HasAgentRun(ctx context.Context, id int64, agent domain.Agent, runDate string) (bool, error) {
	row, err := s.queryRow(ctx, s.sb.Select("COUNT(*)").From("schedule_agent_runs").
		Where(sq.Eq{"schedule_id": id, "agent": string(agent), "run_date": runDate}))
	if err != nil {
		return false, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("query agent run: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (domain.Schedule, error) {
	var (
		sched       domain.Schedule
		description sql.NullString
		kind        string
		agent       string
		lastRun     sql.NullString
		createdAt   string
	)
	if err := row.Scan(&sched.ID, &sched.Name, &description, &kind, &sched.Time, &sched.Days,
		&agent, &sched.Prompt, &sched.Enabled, &lastRun, &createdAt); err != nil {
		return domain.Schedule{}, err
	}
	sched.Description = description.String
	sched.Kind = domain.ScheduleKind(kind)
	sched.Agent = domain.Agent(agent)
	if lastRun.Valid && lastRun.String != "" {
		t, err := parseTime(lastRun.String)
		if err != nil {
			return domain.Schedule{}, fmt.Errorf("parse last_run_at: %w", err)
		}
		sched.LastRunAt = &t
	}
	if t, err := parseTime(createdAt); err == nil {
		sched.CreatedAt = t
	}
	return sched, nil
}
