package opportunities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

const resultsPage = `<html><body>
<div class="result results_links results_links_deep web-result">
  <h2 class="result__title">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.upwork.com%2Fjobs%2Fvideo-editor&rut=x">Video <b>editor</b> needed</a>
  </h2>
  <a class="result__snippet" href="#">Long form YouTube edits, weekly.</a>
</div>
<div class="result results_links results_links_deep web-result">
  <a class="result__a" href="https://fiverr.com/thumbs">Thumbnail artist</a>
</div>
<div class="result results_links_deep">
  <a class="result__a" href="https://ignored.example.com">Ad block</a>
</div>
</body></html>`

type apiStub struct {
	mu    sync.Mutex
	keys  []string
	start []string
	reply map[string]func(w http.ResponseWriter)
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	a.mu.Lock()
	a.keys = append(a.keys, key)
	a.start = append(a.start, r.URL.Query().Get("start"))
	reply := a.reply[key]
	a.mu.Unlock()

	if reply == nil {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	reply(w)
}

func items(links ...string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		var body apiResponse
		for _, l := range links {
			it := apiItem{Title: "Editor wanted", Snippet: "Remote gig", Link: l}
			it.Pagemap.Metatags = []map[string]string{{"author": "Studio X"}}
			body.Items = append(body.Items, it)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

func newSearcher(opts Options) *Searcher {
	s := NewSearcher(opts, nil, NewMemorySeenStore(), zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestFetch_RotatesKeysInOrder(t *testing.T) {
	stub := &apiStub{reply: map[string]func(http.ResponseWriter){
		"k2": items(),
		"k3": items("https://www.upwork.com/jobs/1", "https://upwork.com/jobs/1", "https://contra.com/p/2"),
	}}
	api := httptest.NewServer(stub)
	defer api.Close()

	s := newSearcher(Options{Keys: []string{"k1", "k2", "k3"}, EngineID: "cx", APIURL: api.URL})

	page, err := s.Fetch(context.Background(), "u1", "video editor", 20)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1", "k2", "k3"}, stub.keys)
	assert.Equal(t, []string{"21", "21", "21"}, stub.start)
	assert.Equal(t, SourceAPI, page.Source)
	assert.Equal(t, 30, page.NextStart)

	require.Len(t, page.Items, 3)
	first := page.Items[0]
	assert.Equal(t, "upwork.com", first.Platform)
	assert.Equal(t, "Studio X", first.Author)
	assert.Equal(t, "Editor wanted — Remote gig", first.Text)
	assert.Equal(t, fixedNow, first.Date)
	assert.Equal(t, "contra.com", page.Items[2].Platform)
}

func TestFetch_StopsAtFirstWorkingKey(t *testing.T) {
	stub := &apiStub{reply: map[string]func(http.ResponseWriter){
		"k1": items("https://a.example.com/1"),
		"k2": items("https://b.example.com/1"),
	}}
	api := httptest.NewServer(stub)
	defer api.Close()

	s := newSearcher(Options{Keys: []string{"k1", "k2"}, APIURL: api.URL})

	page, err := s.Fetch(context.Background(), "u1", "editor", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, stub.keys)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a.example.com", page.Items[0].Platform)
}

func TestFetch_HangingKeyDoesNotStarveTheRest(t *testing.T) {
	var mu sync.Mutex
	var tried []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		mu.Lock()
		tried = append(tried, key)
		mu.Unlock()

		if key == "k1" {
			<-r.Context().Done()
			return
		}
		items("https://b.example.com/1")(w)
	}))
	defer api.Close()

	s := newSearcher(Options{Keys: []string{"k1", "k2"}, APIURL: api.URL, Timeout: 300 * time.Millisecond})

	page, err := s.Fetch(context.Background(), "u1", "editor", 0)
	require.NoError(t, err)
	assert.Equal(t, SourceAPI, page.Source)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "b.example.com", page.Items[0].Platform)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"k1", "k2"}, tried)
}

func TestFetch_CancelledCallerStopsRotation(t *testing.T) {
	stub := &apiStub{}
	api := httptest.NewServer(stub)
	defer api.Close()

	s := newSearcher(Options{Keys: []string{"k1", "k2"}, APIURL: api.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Fetch(ctx, "u1", "editor", 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stub.keys)
}

func TestFetch_DedupesAgainstAlreadyShown(t *testing.T) {
	stub := &apiStub{reply: map[string]func(http.ResponseWriter){
		"k1": items("https://a.example.com/1", "https://a.example.com/2"),
	}}
	api := httptest.NewServer(stub)
	defer api.Close()

	s := newSearcher(Options{Keys: []string{"k1"}, APIURL: api.URL})
	ctx := context.Background()

	first, err := s.Fetch(ctx, "u1", "editor", 0)
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)

	again, err := s.Fetch(ctx, "u1", "editor", 10)
	require.NoError(t, err)
	assert.Empty(t, again.Items)
	assert.Equal(t, 20, again.NextStart)

	other, err := s.Fetch(ctx, "u2", "editor", 0)
	require.NoError(t, err)
	assert.Len(t, other.Items, 2)

	require.NoError(t, s.Reset(ctx, "u1", "editor"))
	reset, err := s.Fetch(ctx, "u1", "editor", 0)
	require.NoError(t, err)
	assert.Len(t, reset.Items, 2)
}

func TestFetch_FallsBackToScrapeThroughProxy(t *testing.T) {
	api := httptest.NewServer(&apiStub{})
	defer api.Close()

	var proxied string
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proxied = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(resultsPage))
	}))
	defer proxy.Close()

	s := newSearcher(Options{
		Keys:        []string{"k1", "k2", "k3"},
		APIURL:      api.URL,
		FallbackURL: "https://html.duckduckgo.com/html/",
		ProxyURL:    proxy.URL + "/raw?url=",
	})

	page, err := s.Fetch(context.Background(), "u1", "video editor", 10)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(proxied, "https://html.duckduckgo.com/html/?"))
	assert.Contains(t, proxied, "q=video+editor")
	assert.Contains(t, proxied, "s=10")

	assert.Equal(t, SourceScrape, page.Source)
	assert.Equal(t, 20, page.NextStart)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "https://www.upwork.com/jobs/video-editor", page.Items[0].URL)
	assert.Equal(t, "upwork.com", page.Items[0].Platform)
	assert.Equal(t, "Video editor needed — Long form YouTube edits, weekly.", page.Items[0].Text)
	assert.Equal(t, "Thumbnail artist", page.Items[1].Text)
}

func TestFetch_BothFailIsUnavailable(t *testing.T) {
	api := httptest.NewServer(&apiStub{})
	defer api.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	s := newSearcher(Options{
		Keys:        []string{"k1"},
		APIURL:      api.URL,
		FallbackURL: down.URL,
	})

	page, err := s.Fetch(context.Background(), "u1", "editor", 0)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, page)
}

func TestFetch_EmptyScrapeIsUnavailable(t *testing.T) {
	blank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>rate limited</body></html>"))
	}))
	defer blank.Close()

	s := newSearcher(Options{FallbackURL: blank.URL})

	_, err := s.Fetch(context.Background(), "u1", "editor", 0)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestFetch_EmptyQuery(t *testing.T) {
	s := newSearcher(Options{})
	_, err := s.Fetch(context.Background(), "u1", "  ", 0)
	require.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSeenKey(t *testing.T) {
	assert.Equal(t, SeenKey("u1", "Video Editor"), SeenKey("u1", " video editor "))
	assert.NotEqual(t, SeenKey("u1", "editor"), SeenKey("u2", "editor"))
	assert.True(t, strings.HasPrefix(SeenKey("u1", "x"), "opportunities:seen:u1:"))
}

func TestPlatformOf(t *testing.T) {
	assert.Equal(t, "upwork.com", platformOf("https://www.upwork.com/jobs"))
	assert.Equal(t, "jobs.example.com", platformOf("https://Jobs.Example.com"))
	assert.Equal(t, "", platformOf("not a url"))
}
