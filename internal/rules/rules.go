// Package rules owns the closed alert-rule vocabulary and the layered
// defaults/overrides resolution used to compute a ticker's effective rules.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ResearchAssistant/internal/domain"
)

var vocabulary = map[domain.RuleName]domain.RuleKind{
	domain.RulePriceMovementPct:  domain.RuleNumeric,
	domain.RuleSentimentShift:    domain.RuleBoolean,
	domain.RuleSocialVolumeSpike: domain.RuleBoolean,
	domain.RuleSECFiling:         domain.RuleBoolean,
	domain.RuleCompetitiveNews:   domain.RuleBoolean,
}

// Names returns the vocabulary sorted by name.
func Names() []domain.RuleName {
	names := make([]domain.RuleName, 0, len(vocabulary))
	for name := range vocabulary {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Defaults returns the rule set seeded for a fresh store.
func Defaults() domain.RuleSet {
	return domain.RuleSet{
		domain.RulePriceMovementPct:  domain.NumberValue(5),
		domain.RuleSentimentShift:    domain.BoolValue(true),
		domain.RuleSocialVolumeSpike: domain.BoolValue(true),
		domain.RuleSECFiling:         domain.BoolValue(true),
		domain.RuleCompetitiveNews:   domain.BoolValue(true),
	}
}

// Lookup resolves a rule name against the vocabulary.
func Lookup(name string) (domain.RuleName, domain.RuleKind, error) {
	rule := domain.RuleName(strings.TrimSpace(name))
	kind, ok := vocabulary[rule]
	if !ok {
		return "", 0, domain.Configf("Unknown rule '%s'. Valid rules: %s", name, joinNames())
	}
	return rule, kind, nil
}

// Check validates a typed value for a named rule.
func Check(name string, value domain.RuleValue) (domain.RuleName, error) {
	rule, kind, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if value.Kind() != kind {
		return "", domain.Validationf("Invalid value for '%s': expected %s, got %s.", rule, kind, value.Kind())
	}
	return rule, nil
}

// Coerce parses a textual value and validates it for the named rule.
func Coerce(name, raw string) (domain.RuleName, domain.RuleValue, error) {
	rule, kind, err := Lookup(name)
	if err != nil {
		return "", domain.RuleValue{}, err
	}
	value, ok := ParseValue(raw)
	if !ok {
		return "", domain.RuleValue{}, domain.Validationf("Invalid value for '%s': expected %s, got string.", rule, kind)
	}
	if value.Kind() != kind {
		return "", domain.RuleValue{}, domain.Validationf("Invalid value for '%s': expected %s, got %s.", rule, kind, value.Kind())
	}
	return rule, value, nil
}

// ParseValue reads yes/no style flags and numbers. It reports false for text
// that is neither.
func ParseValue(raw string) (domain.RuleValue, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "on":
		return domain.BoolValue(true), true
	case "false", "no", "off":
		return domain.BoolValue(false), true
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return domain.RuleValue{}, false
	}
	return domain.NumberValue(n), true
}

// Validate checks every entry of a rule set.
func Validate(set domain.RuleSet) error {
	for _, name := range sortedKeys(set) {
		if _, err := Check(string(name), set[name]); err != nil {
			return err
		}
	}
	return nil
}

// Resolve overlays overrides onto defaults. Neither input is modified.
func Resolve(defaults, overrides domain.RuleSet) domain.RuleSet {
	effective := make(domain.RuleSet, len(defaults)+len(overrides))
	for name, value := range defaults {
		effective[name] = value
	}
	for name, value := range overrides {
		effective[name] = value
	}
	return effective
}

// Label renders a rule for humans, e.g. "Price movement alert: >5%".
func Label(name domain.RuleName, value domain.RuleValue) string {
	if name == domain.RulePriceMovementPct {
		return fmt.Sprintf("Price movement alert: >%s%%", value)
	}
	words := strings.Split(string(name), "_")
	for i, w := range words {
		if w == "sec" {
			words[i] = "SEC"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	status := "❌"
	if value.Bool() {
		status = "✅"
	}
	return fmt.Sprintf("%s: %s", strings.Join(words, " "), status)
}

func sortedKeys(set domain.RuleSet) []domain.RuleName {
	keys := make([]domain.RuleName, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// SortedNames returns the keys of set in name order.
func SortedNames(set domain.RuleSet) []domain.RuleName { return sortedKeys(set) }

func joinNames() string {
	names := Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}
