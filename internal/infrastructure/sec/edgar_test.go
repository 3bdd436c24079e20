package sec

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAssistant/internal/config"
	"ResearchAssistant/internal/domain"
)

const sampleHits = `{"hits":{"hits":[
  {"_source":{"form_type":"10-Q","file_date":"2026-08-01","file_description":"Quarterly report","file_url":"https://www.sec.gov/a.htm","display_names":["Apple Inc. (AAPL)"],"period_of_report":"2026-06-28"}},
  {"_source":{"form_type":"4","file_date":"2026-07-15","display_names":[]}},
  {"_source":{"form_type":"8-K","file_date":"2026-07-01"}}
]}}`

func TestGatherQueriesEdgar(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		query url.Values
		agent string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		query = r.URL.Query()
		agent = r.Header.Get("User-Agent")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleHits))
	}))
	t.Cleanup(srv.Close)

	g := NewGatherer(config.SECConfig{
		BaseURL:    srv.URL,
		MaxFilings: 2,
		UserAgent:  "test admin@example.com",
		Lookback:   30 * 24 * time.Hour,
	}, srv.Client())
	g.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	assert.Equal(t, "sec", g.Name())

	section, err := g.Gather(context.Background(), domain.Ticker{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "sec", section.Source)
	assert.Equal(t, "SEC Filings: AAPL", section.Title)
	assert.Contains(t, section.Body, "## 10-Q - Quarterly report\n*Filed: 2026-08-01 | Period: 2026-06-28*\n*Company: Apple Inc. (AAPL)*")
	assert.Contains(t, section.Body, "[View Filing](https://www.sec.gov/a.htm)")
	assert.Contains(t, section.Body, "## 4\n*Filed: 2026-07-15 | Period: N/A*")
	assert.NotContains(t, section.Body, "8-K")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "AAPL", query.Get("q"))
	assert.Equal(t, "custom", query.Get("dateRange"))
	assert.Equal(t, "2026-08-01", query.Get("startdt"))
	assert.Equal(t, "2026-08-31", query.Get("enddt"))
	assert.Equal(t, "10-K,10-Q,8-K,4", query.Get("forms"))
	assert.Equal(t, "test admin@example.com", agent)
}

func TestGatherNoFilings(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[]}}`))
	}))
	t.Cleanup(srv.Close)

	section, err := NewGatherer(config.SECConfig{BaseURL: srv.URL}, srv.Client()).
		Gather(context.Background(), domain.Ticker{Symbol: "CAKE"})
	require.NoError(t, err)
	assert.Equal(t, "No recent SEC filings found.", section.Body)
}

func TestGatherReportsHTTPErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "slow down", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := NewGatherer(config.SECConfig{BaseURL: srv.URL}, srv.Client()).
		Gather(context.Background(), domain.Ticker{Symbol: "AAPL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
