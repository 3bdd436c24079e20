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

var _ ports.SettingsRepository = (*Store)(nil)

// GetSetting returns the raw JSON stored under key.
func (s *Store) GetSetting(ctx context.Context, key domain.SettingKey) (json.RawMessage, bool, error) {
	row, err := s.queryRow(ctx, s.sb.Select("value").From("settings").Where(sq.Eq{"key": string(key)}))
	if err != nil {
		return nil, false, err
	}
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select setting %s: %w", key, err)
	}
	return json.RawMessage(value), true, nil
}

// SetSetting upserts one setting row.
func (s *Store) SetSetting(ctx context.Context, key domain.SettingKey, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %s: value is not valid JSON", key)
	}
	_, err := s.exec(ctx, s.sb.Insert("settings").
		Columns("key", "value").
		Values(string(key), string(value)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = excluded.value"))
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
