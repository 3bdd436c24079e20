package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"ResearchAssistant/internal/domain"
)

// Timezone returns the configured IANA name, UTC when unset.
func (s *Service) Timezone(ctx context.Context) (string, error) {
	raw, ok, err := s.settings.GetSetting(ctx, domain.SettingUserTimezone)
	if err != nil {
		return "", fmt.Errorf("load timezone: %w", err)
	}
	if !ok {
		return domain.DefaultTimezone, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil || strings.TrimSpace(name) == "" {
		return domain.DefaultTimezone, nil
	}
	return name, nil
}

// Location resolves the configured timezone; an unloadable stored name
// falls back to UTC.
func (s *Service) Location(ctx context.Context) (*time.Location, error) {
	name, err := s.Timezone(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		s.logger.Warn("stored timezone is invalid, using UTC", "timezone", name, "error", err)
		return time.UTC, nil
	}
	return loc, nil
}

// SetTimezone validates and stores an IANA timezone name.
func (s *Service) SetTimezone(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if !validTimezone(name) {
		return domain.Validationf("Unknown timezone '%s'. Use IANA timezone names (e.g., Europe/Berlin, US/Eastern, Asia/Tokyo).", name)
	}
	raw, err := json.Marshal(name)
	if err != nil {
		return fmt.Errorf("encode timezone: %w", err)
	}
	if err := s.settings.SetSetting(ctx, domain.SettingUserTimezone, raw); err != nil {
		return fmt.Errorf("store timezone: %w", err)
	}
	s.logger.Info("user timezone changed", "timezone", name)
	return nil
}

func validTimezone(name string) bool {
	if name == "" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
