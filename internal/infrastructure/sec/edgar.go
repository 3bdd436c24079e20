// Package sec gathers recent regulatory filings from SEC EDGAR full-text search.
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/gather"
)

const (
	defaultBaseURL   = "https://efts.sec.gov/LATEST/search-index"
	defaultUserAgent = "ResearchAssistant admin@example.com"
	defaultLookback  = 365 * 24 * time.Hour
	dateLayout       = "2006-01-02"
)

var defaultForms = []string{"10-K", "10-Q", "8-K", "4"}

// Filing is one search hit.
type Filing struct {
	FormType    string
	FiledAt     string
	Description string
	URL         string
	Company     string
	Period      string
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source struct {
				FormType        string   `json:"form_type"`
				FileDate        string   `json:"file_date"`
				FileDescription string   `json:"file_description"`
				FileURL         string   `json:"file_url"`
				DisplayNames    []string `json:"display_names"`
				PeriodOfReport  string   `json:"period_of_report"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Gatherer searches EDGAR for recent filings mentioning a ticker.
type Gatherer struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxFilings int
	forms      []string
	lookback   time.Duration
	now        func() time.Time
}

var _ gather.Gatherer = (*Gatherer)(nil)

// NewGatherer applies defaults to cfg. A nil client gets a 15 second timeout.
func NewGatherer(cfg config.SECConfig, client *http.Client) *Gatherer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxFilings := cfg.MaxFilings
	if maxFilings <= 0 {
		maxFilings = 10
	}
	forms := cfg.Forms
	if len(forms) == 0 {
		forms = defaultForms
	}
	lookback := cfg.Lookback
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &Gatherer{
		client:     client,
		baseURL:    base,
		userAgent:  ua,
		maxFilings: maxFilings,
		forms:      forms,
		lookback:   lookback,
		now:        time.Now,
	}
}

// Name identifies the source inside the registry.
func (g *Gatherer) Name() string { return "sec" }

// Gather queries filings dated within the lookback window.
func (g *Gatherer) Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchSection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL(ticker.Symbol), nil)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("request edgar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ResearchSection{}, fmt.Errorf("edgar returned %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ResearchSection{}, fmt.Errorf("decode edgar response: %w", err)
	}

	filings := make([]Filing, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		src := hit.Source
		f := Filing{
			FormType:    src.FormType,
			FiledAt:     src.FileDate,
			Description: src.FileDescription,
			URL:         src.FileURL,
			Period:      src.PeriodOfReport,
		}
		if len(src.DisplayNames) > 0 {
			f.Company = src.DisplayNames[0]
		}
		filings = append(filings, f)
	}
	if len(filings) > g.maxFilings {
		filings = filings[:g.maxFilings]
	}

	return domain.ResearchSection{
		Source: g.Name(),
		Title:  "SEC Filings: " + ticker.Symbol,
		Body:   FormatFilings(filings),
	}, nil
}

func (g *Gatherer) searchURL(symbol string) string {
	end := g.now().UTC()
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("dateRange", "custom")
	q.Set("startdt", end.Add(-g.lookback).Format(dateLayout))
	q.Set("enddt", end.Format(dateLayout))
	q.Set("forms", strings.Join(g.forms, ","))
	return g.baseURL + "?" + q.Encode()
}

// FormatFilings renders filings as Markdown.
func FormatFilings(filings []Filing) string {
	if len(filings) == 0 {
		return "No recent SEC filings found."
	}
	var b strings.Builder
	for _, f := range filings {
		header := f.FormType
		if f.Description != "" {
			header += " - " + f.Description
		}
		fmt.Fprintf(&b, "## %s\n", header)
		fmt.Fprintf(&b, "*Filed: %s | Period: %s*\n", orNA(f.FiledAt), orNA(f.Period))
		if f.Company != "" {
			fmt.Fprintf(&b, "*Company: %s*\n", f.Company)
		}
		if f.URL != "" {
			fmt.Fprintf(&b, "\n[View Filing](%s)\n", f.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
