package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>"NVDA stock" - Google News</title>
    <item>
      <title>Nvidia beats estimates on data-center demand</title>
      <link>https://example.com/a</link>
      <pubDate>Mon, 02 Mar 2026 14:00:00 GMT</pubDate>
      <description>&lt;a href="https://example.com/a"&gt;Nvidia   beats&lt;/a&gt;&amp;nbsp;&lt;font color="#6f6f6f"&gt;Reuters&lt;/font&gt;</description>
      <source url="https://reuters.com">Reuters</source>
    </item>
    <item>
      <title>   </title>
      <link>https://example.com/empty</link>
    </item>
    <item>
      <title>Chip stocks slide</title>
      <link>https://example.com/b</link>
      <description>Plain summary</description>
    </item>
    <item>
      <title>Third headline</title>
      <link>https://example.com/c</link>
    </item>
  </channel>
</rss>`

func TestParseFeed(t *testing.T) {
	t.Parallel()

	items, err := ParseFeed(strings.NewReader(sampleFeed))
	require.NoError(t, err)
	require.Len(t, items, 3, "items without a title are skipped")

	first := items[0]
	assert.Equal(t, "Nvidia beats estimates on data-center demand", first.Title)
	assert.Equal(t, "https://example.com/a", first.Link)
	assert.Equal(t, "Reuters", first.Source)
	assert.Equal(t, "Nvidia beats Reuters", first.Summary)
	assert.Equal(t, "Plain summary", items[1].Summary)
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := ParseFeed(strings.NewReader("{not xml"))
	assert.Error(t, err)
}

func TestFormatItems(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No recent news found.", FormatItems(nil))

	out := FormatItems([]Item{{Title: "Headline", Link: "https://x", Source: "Wire", Summary: "Body"}})
	assert.Contains(t, out, "## Headline\n*Source: Wire*")
	assert.Contains(t, out, "Body")
	assert.Contains(t, out, "[Read more](https://x)")
}

func TestGatherQueriesFeed(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		query map[string]string
		agent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		q := r.URL.Query()
		query = map[string]string{"q": q.Get("q"), "hl": q.Get("hl"), "gl": q.Get("gl"), "ceid": q.Get("ceid")}
		agent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)

	g := NewGatherer(config.NewsConfig{BaseURL: srv.URL, MaxItems: 2, Language: "en-GB"}, srv.Client())
	assert.Equal(t, "news", g.Name())

	section, err := g.Gather(context.Background(), domain.Ticker{Symbol: "NVDA", Name: "NVIDIA"})
	require.NoError(t, err)
	assert.Equal(t, "news", section.Source)
	assert.Equal(t, "News: NVDA", section.Title)
	assert.Contains(t, section.Body, "Chip stocks slide")
	assert.NotContains(t, section.Body, "Third headline")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{"q": "NVDA stock", "hl": "en-GB", "gl": "GB", "ceid": "GB:en"}, query)
	assert.NotEmpty(t, agent)
}

func TestGatherReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	g := NewGatherer(config.NewsConfig{BaseURL: srv.URL}, srv.Client())
	_, err := g.Gather(context.Background(), domain.Ticker{Symbol: "NVDA"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
