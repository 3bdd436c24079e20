package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

var _ ports.ResearchLog = (*Store)(nil)

const defaultEventLimit = 20

// LogEvent appends one research-log entry.
func (s *Store) LogEvent(ctx context.Context, event domain.ResearchEvent) (int64, error) {
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		metadata = sql.NullString{String: string(event.Metadata), Valid: true}
	}

	row, err := s.queryRow(ctx, s.sb.Insert("research_log").
		Columns("symbol", "agent_id", "event_type", "summary", "metadata", "created_at").
		Values(event.Symbol, event.Agent, event.Type, nullString(event.Summary), metadata, formatTime(createdAt)).
		Suffix("RETURNING id"))
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert research event: %w", err)
	}
	return id, nil
}

// RecentEvents returns the newest events first.
func (s *Store) RecentEvents(ctx context.Context, filter domain.EventFilter) ([]domain.ResearchEvent, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	q := s.sb.Select("id", "symbol", "agent_id", "event_type", "summary", "metadata", "created_at").
		From("research_log").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit))
	eq := sq.Eq{}
	if filter.Symbol != "" {
		eq["symbol"] = filter.Symbol
	}
	if filter.Agent != "" {
		eq["agent_id"] = filter.Agent
	}
	if filter.Type != "" {
		eq["event_type"] = filter.Type
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}

	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query research log: %w", err)
	}
	defer rows.Close()

	var out []domain.ResearchEvent
	for rows.Next() {
		var (
			ev        domain.ResearchEvent
			summary   sql.NullString
			metadata  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.Symbol, &ev.Agent, &ev.Type, &summary, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan research event: %w", err)
		}
		ev.Summary = summary.String
		if metadata.Valid {
			ev.Metadata = json.RawMessage(metadata.String)
		}
		if t, err := parseTime(createdAt); err == nil {
			ev.CreatedAt = t
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
