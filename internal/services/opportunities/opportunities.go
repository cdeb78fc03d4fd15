// Package opportunities looks for freelance postings outside the platform.
// It queries a web-search API, rotating through the configured keys, and
// falls back to scraping an HTML results page through a proxy.
package opportunities

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PageSize is how far NextStart advances after each fetch.
const PageSize = 10

var (
	ErrUnavailable = errors.New("external search is temporarily unavailable")
	ErrEmptyQuery  = errors.New("query is required")
)

type Opportunity struct {
	Platform string    `json:"platform"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url"`
}

type Page struct {
	Items     []Opportunity `json:"items"`
	NextStart int           `json:"next_start"`
	Source    string        `json:"source"`
}

const (
	SourceAPI    = "api"
	SourceScrape = "scrape"
)

type Options struct {
	Keys        []string
	EngineID    string
	APIURL      string
	FallbackURL string
	ProxyURL    string
	Timeout     time.Duration
}

type Searcher struct {
	opts   Options
	client *http.Client
	seen   SeenStore
	log    *zap.Logger
	now    func() time.Time
}

func NewSearcher(opts Options, client *http.Client, seen SeenStore, log *zap.Logger) *Searcher {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Searcher{opts: opts, client: client, seen: seen, log: log, now: time.Now}
}

// SeenKey is the store key holding the URLs already shown to userID for query.
func SeenKey(userID, query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return "opportunities:seen:" + userID + ":" + hex.EncodeToString(sum[:])
}

// Fetch returns the page of results starting at start, minus anything the
// user has already been shown for the same query. Keys are tried in order;
// the first one answering 200 with at least one item wins. When every key
// fails the HTML fallback is tried, and when that fails too ErrUnavailable
// is returned with no items.
func (s *Searcher) Fetch(ctx context.Context, userID, query string, start int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if start < 0 {
		start = 0
	}

	source := SourceAPI
	items, err := s.fromAPI(ctx, query, start)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("search api exhausted, trying html fallback", zap.Error(err))
		source = SourceScrape
		items, err = s.scrapeAttempt(ctx, query, start)
		if err != nil {
			s.log.Warn("search fallback failed", zap.Error(err))
			return nil, ErrUnavailable
		}
	}

	key := SeenKey(userID, query)
	seen, err := s.seen.Seen(ctx, key)
	if err != nil {
		s.log.Warn("failed to read seen urls", zap.Error(err))
		seen = map[string]bool{}
	}

	fresh := dedupe(items, seen)

	urls := make([]string, 0, len(fresh))
	for _, it := range fresh {
		urls = append(urls, it.URL)
	}
	if err := s.seen.Add(ctx, key, urls); err != nil {
		s.log.Warn("failed to store seen urls", zap.Error(err))
	}

	return &Page{Items: fresh, NextStart: start + PageSize, Source: source}, nil
}

// Reset forgets what userID has been shown for query.
func (s *Searcher) Reset(ctx context.Context, userID, query string) error {
	return s.seen.Clear(ctx, SeenKey(userID, query))
}

func dedupe(items []Opportunity, seen map[string]bool) []Opportunity {
	out := make([]Opportunity, 0, len(items))
	local := map[string]bool{}
	for _, it := range items {
		if it.URL == "" || seen[it.URL] || local[it.URL] {
			continue
		}
		local[it.URL] = true
		out = append(out, it)
	}
	return out
}

type apiResponse struct {
	Items []apiItem `json:"items"`
}

type apiItem struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
	Pagemap     struct {
		Metatags []map[string]string `json:"metatags"`
	} `json:"pagemap"`
}

func (it apiItem) author() string {
	for _, tags := range it.Pagemap.Metatags {
		for _, k := range []string{"author", "article:author", "og:site_name"} {
			if v := strings.TrimSpace(tags[k]); v != "" {
				return v
			}
		}
	}
	return platformOf(it.Link)
}

func (s *Searcher) fromAPI(ctx context.Context, query string, start int) ([]Opportunity, error) {
	if len(s.opts.Keys) == 0 || s.opts.APIURL == "" {
		return nil, errors.New("no search api keys configured")
	}

	var lastErr error
	for i, key := range s.opts.Keys {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		items, err := s.apiAttempt(ctx, key, query, start)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err == nil {
			err = errors.New("no results")
		}
		s.log.Debug("search key failed", zap.Int("key_index", i), zap.Error(err))
		lastErr = err
	}
	return nil, fmt.Errorf("all %d search keys failed: %w", len(s.opts.Keys), lastErr)
}

// Each upstream call gets its own deadline so one hanging key cannot use up
// the time left for the remaining keys and the fallback.
func (s *Searcher) apiAttempt(ctx context.Context, key, query string, start int) ([]Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.callAPI(ctx, key, query, start)
}

func (s *Searcher) scrapeAttempt(ctx context.Context, query string, start int) ([]Opportunity, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.fromScrape(ctx, query, start)
}

func (s *Searcher) callAPI(ctx context.Context, key, query string, start int) ([]Opportunity, error) {
	u, err := url.Parse(s.opts.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search api url: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	q.Set("cx", s.opts.EngineID)
	q.Set("q", query)
	q.Set("start", strconv.Itoa(start+1))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 2<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	now := s.now()
	out := make([]Opportunity, 0, len(body.Items))
	for _, it := range body.Items {
		if it.Link == "" {
			continue
		}
		out = append(out, Opportunity{
			Platform: platformOf(it.Link),
			Author:   it.author(),
			Text:     joinText(it.Title, it.Snippet),
			Date:     now,
			URL:      it.Link,
		})
	}
	return out, nil
}

func joinText(title, snippet string) string {
	title = strings.TrimSpace(title)
	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return title
	}
	return title + " — " + snippet
}

// platformOf returns the hostname of raw without a leading "www.".
func platformOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
