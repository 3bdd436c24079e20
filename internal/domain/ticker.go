package domain

import (
	"strings"
	"time"
)

// Ticker is a tracked research subject with its own rule overrides.
type Ticker struct {
	ID              int64
	Symbol          string
	Name            string
	Theme           string
	Directive       string
	ExploreAdjacent bool
	AddedAt         time.Time
	Rules           RuleSet
}

// DirectivePatch changes research focus fields; nil means unchanged and an
// empty string clears the field.
type DirectivePatch struct {
	Theme           *string
	Directive       *string
	ExploreAdjacent *bool
}

// Empty reports whether the patch changes nothing.
func (p DirectivePatch) Empty() bool {
	return p.Theme == nil && p.Directive == nil && p.ExploreAdjacent == nil
}

// NormalizeSymbol strips a leading cashtag and upper-cases the symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(symbol), "$")))
}
