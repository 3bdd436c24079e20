package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/ports"
)

// Collector implements ports.ResearchSource over the enabled gatherers. A
// failing gatherer contributes a placeholder section instead of an error.
type Collector struct {
	registry *Registry
	enabled  []string
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.ResearchSource = (*Collector)(nil)

// NewCollector wires the registry with the configured source order. An
// empty enabled list means every registered gatherer.
func NewCollector(reg *Registry, enabled []string, timeout time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if len(enabled) == 0 && reg != nil {
		enabled = reg.Names()
	}
	return &Collector{registry: reg, enabled: enabled, timeout: timeout, logger: logger, now: time.Now}
}

// Gather runs every enabled gatherer in order and renders the document.
func (c *Collector) Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchDocument, error) {
	if c.registry == nil {
		return domain.ResearchDocument{}, fmt.Errorf("gatherer registry is not configured")
	}

	doc := domain.ResearchDocument{
		Symbol:     ticker.Symbol,
		Company:    ticker.Name,
		GatheredAt: c.now().UTC(),
	}
	c.logger.Debug("gather research", "ticker", ticker.Symbol, "sources", len(c.enabled))

	for _, name := range c.enabled {
		g, err := c.registry.Resolve(name)
		if err != nil {
			return domain.ResearchDocument{}, fmt.Errorf("source %s: %w", name, err)
		}
		section, err := c.run(ctx, g, ticker)
		if err != nil {
			c.logger.Warn("research source failed", "ticker", ticker.Symbol, "source", name, "error", err)
			section = domain.ResearchSection{
				Source: name,
				Title:  fmt.Sprintf("%s: %s", capitalize(name), ticker.Symbol),
				Body:   "_Source unavailable._",
			}
		}
		if section.Source == "" {
			section.Source = name
		}
		doc.Sections = append(doc.Sections, section)
	}

	doc.Markdown = Render(ticker, doc)
	c.logger.Debug("research gathered", "ticker", ticker.Symbol, "sections", len(doc.Sections), "bytes", len(doc.Markdown))
	return doc, nil
}

func (c *Collector) run(ctx context.Context, g Gatherer, ticker domain.Ticker) (domain.ResearchSection, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return g.Gather(ctx, ticker)
}

// Render combines the sections into one Markdown report.
func Render(ticker domain.Ticker, doc domain.ResearchDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s (%s)\n", ticker.Symbol, ticker.Name)
	fmt.Fprintf(&b, "*Generated: %s*\n", doc.GatheredAt.Format(time.RFC3339))

	if ticker.Theme != "" || ticker.Directive != "" {
		b.WriteString("\n## Research Focus\n")
		if ticker.Theme != "" {
			fmt.Fprintf(&b, "- Theme: %s\n", ticker.Theme)
		}
		if ticker.Directive != "" {
			fmt.Fprintf(&b, "- Directive: %s\n", ticker.Directive)
		}
		if ticker.ExploreAdjacent {
			b.WriteString("- Consider adjacent tickers in the same space.\n")
		}
	}

	for _, section := range doc.Sections {
		b.WriteString("\n---\n\n")
		fmt.Fprintf(&b, "# %s\n\n", section.Title)
		b.WriteString(strings.TrimSpace(section.Body))
		b.WriteString("\n")
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
