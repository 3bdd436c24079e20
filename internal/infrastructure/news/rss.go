// Package news gathers recent headlines for a ticker from a Google News
// compatible RSS search feed.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
	"ResearchAssistant/internal/gather"
)

const defaultBaseURL = "https://news.google.com/rss/search"

// Item is one parsed feed entry.
type Item struct {
	Title     string
	Link      string
	Published string
	Summary   string
	Source    string
}

// Gatherer fetches and renders the news section.
type Gatherer struct {
	client   *http.Client
	baseURL  string
	maxItems int
	language string
}

var _ gather.Gatherer = (*Gatherer)(nil)

// NewGatherer wires an HTTP client; a nil client gets a 15 second timeout.
func NewGatherer(cfg config.NewsConfig, client *http.Client) *Gatherer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 10
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	return &Gatherer{client: client, baseURL: base, maxItems: maxItems, language: language}
}

// Name identifies the source inside the registry.
func (g *Gatherer) Name() string { return "news" }

// Gather searches the feed for "<SYMBOL> stock".
func (g *Gatherer) Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchSection, error) {
	feedURL, err := g.searchURL(ticker.Symbol)
	if err != nil {
		return domain.ResearchSection{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ResearchAssistant/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ResearchSection{}, fmt.Errorf("news feed returned %s", resp.Status)
	}

	items, err := ParseFeed(resp.Body)
	if err != nil {
		return domain.ResearchSection{}, err
	}
	if len(items) > g.maxItems {
		items = items[:g.maxItems]
	}

	return domain.ResearchSection{
		Source: g.Name(),
		Title:  "News: " + ticker.Symbol,
		Body:   FormatItems(items),
	}, nil
}

func (g *Gatherer) searchURL(symbol string) (string, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	country := "US"
	if _, region, ok := strings.Cut(g.language, "-"); ok && region != "" {
		country = strings.ToUpper(region)
	}
	lang, _, _ := strings.Cut(g.language, "-")

	q := u.Query()
	q.Set("q", symbol+" stock")
	q.Set("hl", g.language)
	q.Set("gl", country)
	q.Set("ceid", country+":"+lang)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
	Source      string `xml:"source"`
}

// ParseFeed decodes an RSS 2.0 document. Descriptions are reduced to
// plain text.
func ParseFeed(r io.Reader) ([]Item, error) {
	var doc rssDocument
	dec := xml.NewDecoder(r)
	dec.Strict = false
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	items := make([]Item, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		items = append(items, Item{
			Title:     title,
			Link:      strings.TrimSpace(it.Link),
			Published: strings.TrimSpace(it.PubDate),
			Summary:   plainText(it.Description),
			Source:    strings.TrimSpace(it.Source),
		})
	}
	return items, nil
}

// plainText strips markup from an HTML fragment.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// FormatItems renders items as Markdown.
func FormatItems(items []Item) string {
	if len(items) == 0 {
		return "No recent news found."
	}
	var b strings.Builder
	for _, it := range items {
		fmt.Fprintf(&b, "## %s\n", it.Title)
		if it.Source != "" {
			fmt.Fprintf(&b, "*Source: %s*\n", it.Source)
		}
		if it.Published != "" {
			fmt.Fprintf(&b, "*Published: %s*\n", it.Published)
		}
		b.WriteString("\n")
		if it.Summary != "" && it.Summary != it.Title {
			b.WriteString(it.Summary)
			b.WriteString("\n")
		}
		if it.Link != "" {
			fmt.Fprintf(&b, "\n[Read more](%s)\n", it.Link)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
