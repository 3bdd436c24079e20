package domain

import (
	"slices"
	"time"
)

// Agent names the team member that owns a schedule.
type Agent string

const (
	AgentMax  Agent = "max"
	AgentNova Agent = "nova"
	AgentLuna Agent = "luna"
	AgentAce  Agent = "ace"
	// AgentAll makes every agent run the schedule independently.
	AgentAll Agent = "all"
)

// Agents lists every accepted agent value including the AgentAll sentinel.
var Agents = []Agent{AgentAce, AgentAll, AgentLuna, AgentMax, AgentNova}

// Valid reports whether a is a known agent or the sentinel.
func (a Agent) Valid() bool { return slices.Contains(Agents, a) }

// ScheduleKind is informational; firing is driven by the day set.
type ScheduleKind string

const (
	KindDaily  ScheduleKind = "daily"
	KindWeekly ScheduleKind = "weekly"
	KindCustom ScheduleKind = "custom"
)

// ScheduleKinds lists the accepted kinds.
var ScheduleKinds = []ScheduleKind{KindCustom, KindDaily, KindWeekly}

// Valid reports whether k is a known kind.
func (k ScheduleKind) Valid() bool { return slices.Contains(ScheduleKinds, k) }

// AllDays is the wildcard day expression.
const AllDays = "*"

// Schedule is a recurring report definition.
type Schedule struct {
	ID          int64
	Name        string
	Description string
	Kind        ScheduleKind
	// Time is wall-clock HH:MM interpreted in the current user timezone.
	Time      string
	Days      string
	Agent     Agent
	Prompt    string
	Enabled   bool
	LastRunAt *time.Time
	CreatedAt time.Time
}

// SchedulePatch carries the fields to change; nil means unchanged.
type SchedulePatch struct {
	Name        *string
	Description *string
	Time        *string
	Days        *string
	Agent       *Agent
	Prompt      *string
	Enabled     *bool
}

// Empty reports whether the patch changes nothing.
func (p SchedulePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Time == nil && p.Days == nil &&
		p.Agent == nil && p.Prompt == nil && p.Enabled == nil
}

// ScheduleFilter narrows a schedule listing.
type ScheduleFilter struct {
	Agent       Agent
	EnabledOnly bool
}
