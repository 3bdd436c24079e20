package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RuleName identifies one alert rule from the closed vocabulary.
type RuleName string

const (
	RulePriceMovementPct  RuleName = "price_movement_pct"
	RuleSentimentShift    RuleName = "sentiment_shift"
	RuleSocialVolumeSpike RuleName = "social_volume_spike"
	RuleSECFiling         RuleName = "sec_filing"
	RuleCompetitiveNews   RuleName = "competitive_news"
)

// RuleKind is the declared value type of a rule.
type RuleKind int

const (
	RuleNumeric RuleKind = iota + 1
	RuleBoolean
)

func (k RuleKind) String() string {
	switch k {
	case RuleNumeric:
		return "number"
	case RuleBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// RuleValue is a typed rule value: either a number or a flag.
type RuleValue struct {
	kind   RuleKind
	number float64
	flag   bool
}

// NumberValue wraps a numeric rule value.
func NumberValue(v float64) RuleValue { return RuleValue{kind: RuleNumeric, number: v} }

// BoolValue wraps a boolean rule value.
func BoolValue(v bool) RuleValue { return RuleValue{kind: RuleBoolean, flag: v} }

func (v RuleValue) Kind() RuleKind  { return v.kind }
func (v RuleValue) Number() float64 { return v.number }
func (v RuleValue) Bool() bool      { return v.flag }

func (v RuleValue) String() string {
	switch v.kind {
	case RuleNumeric:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	case RuleBoolean:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as a bare JSON number or boolean.
func (v RuleValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case RuleNumeric:
		return json.Marshal(v.number)
	case RuleBoolean:
		return json.Marshal(v.flag)
	default:
		return nil, fmt.Errorf("rule value has no kind")
	}
}

// UnmarshalJSON accepts a JSON number or boolean; anything else is rejected.
func (v *RuleValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case bool:
		*v = BoolValue(typed)
	case float64:
		*v = NumberValue(typed)
	default:
		return fmt.Errorf("rule value must be a number or boolean, got %s", string(data))
	}
	return nil
}

// RuleSet maps rule names to values. Defaults and per-ticker overrides are
// both stored as RuleSets and merged on read.
type RuleSet map[RuleName]RuleValue

// Clone returns an independent copy.
func (s RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
