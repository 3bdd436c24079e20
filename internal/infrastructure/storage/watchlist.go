package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

var _ ports.WatchlistRepository = (*Store)(nil)

var tickerColumns = []string{"id", "symbol", "name", "theme", "directive", "explore_adjacent", "added_at", "rules"}

// AddTicker inserts a ticker; the symbol must already be normalised.
func (s *Store) AddTicker(ctx context.Context, t domain.Ticker) (int64, error) {
	rules, err := encodeRules(t.Rules)
	if err != nil {
		return 0, err
	}
	row, err := s.queryRow(ctx, s.sb.Insert("watchlist").
		Columns("symbol", "name", "theme", "directive", "explore_adjacent", "added_at", "rules").
		Values(t.Symbol, t.Name, nullString(t.Theme), nullString(t.Directive), t.ExploreAdjacent, formatTime(t.AddedAt), rules).
		Suffix("RETURNING id"))
	if err != nil {
		return 0, err
	}
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert ticker %s: %w", t.Symbol, err)
	}
	return id, nil
}

// FindTicker looks a ticker up by normalised symbol.
func (s *Store) FindTicker(ctx context.Context, symbol string) (domain.Ticker, bool, error) {
	row, err := s.queryRow(ctx, s.sb.Select(tickerColumns...).From("watchlist").Where(sq.Eq{"symbol": symbol}))
	if err != nil {
		return domain.Ticker{}, false, err
	}
	t, err := scanTicker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ticker{}, false, nil
	}
	if err != nil {
		return domain.Ticker{}, false, fmt.Errorf("select ticker %s: %w", symbol, err)
	}
	return t, true, nil
}

// ListTickers returns tickers in the order they were added.
func (s *Store) ListTickers(ctx context.Context) ([]domain.Ticker, error) {
	rows, err := s.query(ctx, s.sb.Select(tickerColumns...).From("watchlist").OrderBy("added_at ASC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var out []domain.Ticker
	for rows.Next() {
		t, err := scanTicker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// RemoveTicker deletes a ticker and reports whether it existed.
func (s *Store) RemoveTicker(ctx context.Context, symbol string) (bool, error) {
	res, err := s.exec(ctx, s.sb.Delete("watchlist").Where(sq.Eq{"symbol": symbol}))
	if err != nil {
		return false, fmt.Errorf("delete ticker %s: %w", symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// SetTickerRules replaces a ticker's override set.
func (s *Store) SetTickerRules(ctx context.Context, symbol string, rules domain.RuleSet) error {
	encoded, err := encodeRules(rules)
	if err != nil {
		return err
	}
	res, err := s.exec(ctx, s.sb.Update("watchlist").Set("rules", encoded).Where(sq.Eq{"symbol": symbol}))
	if err != nil {
		return fmt.Errorf("update rules for %s: %w", symbol, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("$%s not found in your watchlist.", symbol)
	}
	return nil
}

// UpdateDirective writes the non-nil research focus fields.
func (s *Store) UpdateDirective(ctx context.Context, symbol string, patch domain.DirectivePatch) error {
	set := map[string]any{}
	if patch.Theme != nil {
		set["theme"] = nullString(*patch.Theme)
	}
	if patch.Directive != nil {
		set["directive"] = nullString(*patch.Directive)
	}
	if patch.ExploreAdjacent != nil {
		set["explore_adjacent"] = *patch.ExploreAdjacent
	}
	if len(set) == 0 {
		return nil
	}
	res, err := s.exec(ctx, s.sb.Update("watchlist").SetMap(set).Where(sq.Eq{"symbol": symbol}))
	if err != nil {
		return fmt.Errorf("update directive for %s: %w", symbol, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("$%s not found in your watchlist.", symbol)
	}
	return nil
}

func scanTicker(row rowScanner) (domain.Ticker, error) {
	var (
		t         domain.Ticker
		theme     sql.NullString
		directive sql.NullString
		addedAt   string
		rules     string
	)
	if err := row.Scan(&t.ID, &t.Symbol, &t.Name, &theme, &directive, &t.ExploreAdjacent, &addedAt, &rules); err != nil {
		return domain.Ticker{}, err
	}
	t.Theme = theme.String
	t.Directive = directive.String
	if at, err := parseTime(addedAt); err == nil {
		t.AddedAt = at
	}
	t.Rules = domain.RuleSet{}
	if rules != "" {
		if err := json.Unmarshal([]byte(rules), &t.Rules); err != nil {
			return domain.Ticker{}, fmt.Errorf("decode rules for %s: %w", t.Symbol, err)
		}
	}
	return t, nil
}

func encodeRules(rules domain.RuleSet) (string, error) {
	if rules == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return "", fmt.Errorf("encode rules: %w", err)
	}
	return string(raw), nil
}
