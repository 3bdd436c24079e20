// Package social gathers community discussion about a ticker.
package social

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
	defaultBaseURL   = "https://www.reddit.com"
	defaultUserAgent = "ResearchAssistant/1.0"
	selftextLimit    = 500
)

// Post is one search hit.
type Post struct {
	Title       string `json:"title"`
	Subreddit   string `json:"subreddit"`
	Score       int    `json:"score"`
	NumComments int    `json:"num_comments"`
	Author      string `json:"author"`
	Selftext    string `json:"selftext"`
	Permalink   string `json:"permalink"`
}

type searchResponse struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditGatherer searches Reddit for recent posts mentioning a ticker.
type RedditGatherer struct {
	client     *http.Client
	baseURL    string
	userAgent  string
	maxPosts   int
	subreddits []string
}

var _ gather.Gatherer = (*RedditGatherer)(nil)

// NewRedditGatherer applies defaults to cfg. A nil client gets a 15 second
// timeout.
func NewRedditGatherer(cfg config.RedditConfig, client *http.Client) *RedditGatherer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	maxPosts := cfg.MaxPosts
	if maxPosts <= 0 {
		maxPosts = 10
	}
	return &RedditGatherer{client: client, baseURL: base, userAgent: ua, maxPosts: maxPosts, subreddits: cfg.Subreddits}
}

// Name identifies the source inside the registry.
func (g *RedditGatherer) Name() string { return "reddit" }

// Gather runs one search across all of Reddit, or across the configured
// subreddits when any are set.
func (g *RedditGatherer) Gather(ctx context.Context, ticker domain.Ticker) (domain.ResearchSection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL(ticker.Symbol), nil)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.ResearchSection{}, fmt.Errorf("request reddit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ResearchSection{}, fmt.Errorf("reddit returned %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ResearchSection{}, fmt.Errorf("decode reddit response: %w", err)
	}

	posts := make([]Post, 0, len(parsed.Data.Children))
	for _, child := range parsed.Data.Children {
		posts = append(posts, child.Data)
	}
	if len(posts) > g.maxPosts {
		posts = posts[:g.maxPosts]
	}

	return domain.ResearchSection{
		Source: g.Name(),
		Title:  "Reddit: " + ticker.Symbol,
		Body:   FormatPosts(posts),
	}, nil
}

func (g *RedditGatherer) searchURL(symbol string) string {
	path := "/search.json"
	if len(g.subreddits) > 0 {
		path = "/r/" + strings.Join(g.subreddits, "+") + "/search.json"
	}
	q := url.Values{}
	q.Set("q", fmt.Sprintf("$%s OR %s stock", symbol, symbol))
	q.Set("sort", "relevance")
	q.Set("t", "week")
	q.Set("limit", fmt.Sprint(g.maxPosts))
	if len(g.subreddits) > 0 {
		q.Set("restrict_sr", "on")
	}
	return g.baseURL + path + "?" + q.Encode()
}

// FormatPosts renders posts as Markdown.
func FormatPosts(posts []Post) string {
	if len(posts) == 0 {
		return "No recent Reddit discussion found."
	}
	var b strings.Builder
	for _, p := range posts {
		fmt.Fprintf(&b, "## %s\n", strings.TrimSpace(p.Title))
		fmt.Fprintf(&b, "*r/%s | ⬆ %d | 💬 %d | u/%s*\n\n", p.Subreddit, p.Score, p.NumComments, p.Author)
		if text := truncate(strings.TrimSpace(p.Selftext), selftextLimit); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
		if p.Permalink != "" {
			fmt.Fprintf(&b, "[View on Reddit](https://www.reddit.com%s)\n\n", p.Permalink)
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
