// Package watchlist manages tracked tickers, their alert-rule overrides and
// the global analysis settings.
package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
	"ResearchAssistant/internal/rules"
)

// Service implements the watchlist and settings surface.
type Service struct {
	repo     ports.WatchlistRepository
	settings ports.SettingsRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the stores.
func NewService(repo ports.WatchlistRepository, settings ports.SettingsRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, settings: settings, logger: logger, now: time.Now}
}

// AddRequest describes a ticker to start tracking.
type AddRequest struct {
	Symbol          string
	Name            string
	Theme           string
	Directive       string
	ExploreAdjacent bool
}

// Add starts tracking a ticker with no rule overrides.
func (s *Service) Add(ctx context.Context, req AddRequest) (domain.Ticker, error) {
	symbol := domain.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		return domain.Ticker{}, domain.Validationf("Symbol cannot be empty.")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Ticker{}, domain.Validationf("Company name cannot be empty.")
	}

	_, exists, err := s.repo.FindTicker(ctx, symbol)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("find ticker %s: %w", symbol, err)
	}
	if exists {
		return domain.Ticker{}, domain.Validationf("$%s is already in your watchlist.", symbol)
	}

	t := domain.Ticker{
		Symbol:          symbol,
		Name:            name,
		Theme:           strings.TrimSpace(req.Theme),
		Directive:       strings.TrimSpace(req.Directive),
		ExploreAdjacent: req.ExploreAdjacent,
		AddedAt:         s.now().UTC(),
		Rules:           domain.RuleSet{},
	}
	id, err := s.repo.AddTicker(ctx, t)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("add ticker %s: %w", symbol, err)
	}
	t.ID = id
	s.logger.Info("ticker added", "symbol", symbol, "name", name)
	return t, nil
}

// Remove stops tracking a ticker.
func (s *Service) Remove(ctx context.Context, symbol string) error {
	symbol = domain.NormalizeSymbol(symbol)
	removed, err := s.repo.RemoveTicker(ctx, symbol)
	if err != nil {
		return fmt.Errorf("remove ticker %s: %w", symbol, err)
	}
	if !removed {
		return notTracked(symbol)
	}
	s.logger.Info("ticker removed", "symbol", symbol)
	return nil
}

// Find loads one ticker; the symbol is normalised first.
func (s *Service) Find(ctx context.Context, symbol string) (domain.Ticker, error) {
	symbol = domain.NormalizeSymbol(symbol)
	t, ok, err := s.repo.FindTicker(ctx, symbol)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("find ticker %s: %w", symbol, err)
	}
	if !ok {
		return domain.Ticker{}, notTracked(symbol)
	}
	return t, nil
}

// List returns every tracked ticker in the order added.
func (s *Service) List(ctx context.Context) ([]domain.Ticker, error) {
	list, err := s.repo.ListTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickers: %w", err)
	}
	return list, nil
}

// SetRule parses raw and stores it as an override for one ticker.
func (s *Service) SetRule(ctx context.Context, symbol, name, raw string) (domain.RuleName, domain.RuleValue, error) {
	t, err := s.Find(ctx, symbol)
	if err != nil {
		return "", domain.RuleValue{}, err
	}
	rule, value, err := rules.Coerce(name, raw)
	if err != nil {
		return "", domain.RuleValue{}, err
	}
	return rule, value, s.storeOverride(ctx, t, rule, value)
}

// SetRuleValue stores an already typed override for one ticker.
func (s *Service) SetRuleValue(ctx context.Context, symbol, name string, value domain.RuleValue) error {
	t, err := s.Find(ctx, symbol)
	if err != nil {
		return err
	}
	rule, err := rules.Check(name, value)
	if err != nil {
		return err
	}
	return s.storeOverride(ctx, t, rule, value)
}

func (s *Service) storeOverride(ctx context.Context, t domain.Ticker, rule domain.RuleName, value domain.RuleValue) error {
	overrides := t.Rules.Clone()
	if overrides == nil {
		overrides = domain.RuleSet{}
	}
	overrides[rule] = value
	if err := s.repo.SetTickerRules(ctx, t.Symbol, overrides); err != nil {
		return fmt.Errorf("store rules for %s: %w", t.Symbol, err)
	}
	s.logger.Info("rule override set", "symbol", t.Symbol, "rule", rule, "value", value.String())
	return nil
}

// ResetRules clears every override so the ticker follows the defaults.
func (s *Service) ResetRules(ctx context.Context, symbol string) error {
	t, err := s.Find(ctx, symbol)
	if err != nil {
		return err
	}
	if err := s.repo.SetTickerRules(ctx, t.Symbol, domain.RuleSet{}); err != nil {
		return fmt.Errorf("reset rules for %s: %w", t.Symbol, err)
	}
	s.logger.Info("rule overrides cleared", "symbol", t.Symbol)
	return nil
}

// SetDirective changes the research focus fields. An empty string clears a
// field; an empty patch is rejected.
func (s *Service) SetDirective(ctx context.Context, symbol string, patch domain.DirectivePatch) ([]string, error) {
	t, err := s.Find(ctx, symbol)
	if err != nil {
		return nil, err
	}

	var changes []string
	if patch.Theme != nil {
		theme := strings.TrimSpace(*patch.Theme)
		patch.Theme = &theme
		if theme == "" {
			changes = append(changes, "theme cleared")
		} else {
			changes = append(changes, fmt.Sprintf("theme='%s'", theme))
		}
	}
	if patch.Directive != nil {
		directive := strings.TrimSpace(*patch.Directive)
		patch.Directive = &directive
		if directive == "" {
			changes = append(changes, "directive cleared")
		} else {
			changes = append(changes, fmt.Sprintf("directive='%s'", directive))
		}
	}
	if patch.ExploreAdjacent != nil {
		state := "off"
		if *patch.ExploreAdjacent {
			state = "on"
		}
		changes = append(changes, "explore_adjacent="+state)
	}
	if patch.Empty() {
		return nil, domain.Validationf("No changes specified.")
	}

	if err := s.repo.UpdateDirective(ctx, t.Symbol, patch); err != nil {
		return nil, fmt.Errorf("update directive for %s: %w", t.Symbol, err)
	}
	s.logger.Info("directive updated", "symbol", t.Symbol, "changes", strings.Join(changes, ", "))
	return changes, nil
}

// EffectiveRules overlays a ticker's overrides onto the current defaults.
func (s *Service) EffectiveRules(ctx context.Context, symbol string) (domain.RuleSet, error) {
	t, err := s.Find(ctx, symbol)
	if err != nil {
		return nil, err
	}
	defaults, err := s.DefaultRules(ctx)
	if err != nil {
		return nil, err
	}
	return rules.Resolve(defaults, t.Rules), nil
}

// DefaultRules returns the stored global defaults, or the built-in set when
// none are stored.
func (s *Service) DefaultRules(ctx context.Context) (domain.RuleSet, error) {
	raw, ok, err := s.settings.GetSetting(ctx, domain.SettingDefaultRules)
	if err != nil {
		return nil, fmt.Errorf("load default rules: %w", err)
	}
	if !ok {
		return rules.Defaults(), nil
	}
	var set domain.RuleSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decode default rules: %w", err)
	}
	if set == nil {
		set = domain.RuleSet{}
	}
	return set, nil
}

// SetDefaultRule changes one global default.
func (s *Service) SetDefaultRule(ctx context.Context, name, raw string) (domain.RuleName, domain.RuleValue, error) {
	rule, value, err := rules.Coerce(name, raw)
	if err != nil {
		return "", domain.RuleValue{}, err
	}
	defaults, err := s.DefaultRules(ctx)
	if err != nil {
		return "", domain.RuleValue{}, err
	}
	defaults = defaults.Clone()
	defaults[rule] = value

	encoded, err := json.Marshal(defaults)
	if err != nil {
		return "", domain.RuleValue{}, fmt.Errorf("encode default rules: %w", err)
	}
	if err := s.settings.SetSetting(ctx, domain.SettingDefaultRules, encoded); err != nil {
		return "", domain.RuleValue{}, fmt.Errorf("store default rules: %w", err)
	}
	s.logger.Info("default rule set", "rule", rule, "value", value.String())
	return rule, value, nil
}

// Settings reads the global analysis settings, filling missing keys with
// their defaults.
func (s *Service) Settings(ctx context.Context) (domain.GlobalSettings, error) {
	out := domain.DefaultGlobalSettings()

	raw, ok, err := s.settings.GetSetting(ctx, domain.SettingSignificanceThreshold)
	if err != nil {
		return out, fmt.Errorf("load %s: %w", domain.SettingSignificanceThreshold, err)
	}
	if ok {
		// Older rows may hold the number as a JSON string.
		var threshold json.Number
		if err := json.Unmarshal(raw, &threshold); err != nil {
			return out, fmt.Errorf("decode %s: %w", domain.SettingSignificanceThreshold, err)
		}
		n, err := parseThreshold(threshold.String())
		if err != nil {
			s.logger.Warn("stored threshold is invalid, using default", "value", string(raw))
		} else {
			out.SignificanceThreshold = n
		}
	}

	for key, dst := range map[domain.SettingKey]*string{
		domain.SettingCheapModel:  &out.CheapModel,
		domain.SettingStrongModel: &out.StrongModel,
	} {
		raw, ok, err := s.settings.GetSetting(ctx, key)
		if err != nil {
			return out, fmt.Errorf("load %s: %w", key, err)
		}
		if !ok {
			continue
		}
		var model string
		if err := json.Unmarshal(raw, &model); err != nil {
			return out, fmt.Errorf("decode %s: %w", key, err)
		}
		if model = strings.TrimSpace(model); model != "" {
			*dst = model
		}
	}
	return out, nil
}

// SetGlobal validates and stores one global setting given as text.
func (s *Service) SetGlobal(ctx context.Context, key, raw string) error {
	setting := domain.SettingKey(strings.TrimSpace(key))
	raw = strings.TrimSpace(raw)

	var value any
	switch setting {
	case domain.SettingSignificanceThreshold:
		n, err := parseThreshold(raw)
		if err != nil {
			return err
		}
		value = n
	case domain.SettingCheapModel, domain.SettingStrongModel:
		if raw == "" {
			return domain.Validationf("%s cannot be empty.", setting)
		}
		value = raw
	default:
		return domain.Configf("Unknown setting '%s'. Valid settings: %s", key, globalKeyList())
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", setting, err)
	}
	if err := s.settings.SetSetting(ctx, setting, encoded); err != nil {
		return fmt.Errorf("store %s: %w", setting, err)
	}
	s.logger.Info("global setting changed", "key", setting, "value", raw)
	return nil
}

// Entry is a ticker together with its resolved rules.
type Entry struct {
	Ticker     domain.Ticker
	Effective  domain.RuleSet
	Overridden map[domain.RuleName]bool
}

// Overview resolves every ticker against the current defaults.
func (s *Service) Overview(ctx context.Context) ([]Entry, domain.GlobalSettings, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, settings, err
	}
	defaults, err := s.DefaultRules(ctx)
	if err != nil {
		return nil, settings, err
	}
	tickers, err := s.List(ctx)
	if err != nil {
		return nil, settings, err
	}

	entries := make([]Entry, 0, len(tickers))
	for _, t := range tickers {
		overridden := make(map[domain.RuleName]bool, len(t.Rules))
		for name := range t.Rules {
			overridden[name] = true
		}
		entries = append(entries, Entry{
			Ticker:     t,
			Effective:  rules.Resolve(defaults, t.Rules),
			Overridden: overridden,
		})
	}
	return entries, settings, nil
}

func parseThreshold(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > 10 {
		return 0, domain.Validationf("significance_threshold must be an integer from 1 to 10, got '%s'.", raw)
	}
	return n, nil
}

func globalKeyList() string {
	names := make([]string, len(domain.GlobalKeys))
	for i, k := range domain.GlobalKeys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func notTracked(symbol string) error {
	return domain.NotFoundf("$%s not found in your watchlist.", symbol)
}
