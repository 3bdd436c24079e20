package domain

import (
	"encoding/json"
	"time"
)

// Research log event types written by the heartbeat.
const (
	EventAnalysis     = "analysis"
	EventAlert        = "alert"
	EventScheduledRun = "scheduled_run"
)

// ResearchEvent is one research-log entry.
type ResearchEvent struct {
	ID        int64
	Symbol    string
	Agent     string
	Type      string
	Summary   string
	Metadata  json.RawMessage
	CreatedAt time.Time
}

// EventFilter narrows RecentEvents; zero values are ignored.
type EventFilter struct {
	Symbol string
	Agent  string
	Type   string
	Limit  int
}

// ResearchSection is one gatherer's contribution to a research document.
type ResearchSection struct {
	Source string
	Title  string
	Body   string
}

// ResearchDocument is the text handed to the analyzer for one ticker.
type ResearchDocument struct {
	Symbol     string
	Company    string
	GatheredAt time.Time
	Sections   []ResearchSection
	Markdown   string
}
