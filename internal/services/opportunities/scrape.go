package opportunities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// fallbackURL builds the results page address, wrapped by the proxy prefix
// when one is configured.
func (s *Searcher) fallbackURL(query string, start int) (string, error) {
	if s.opts.FallbackURL == "" {
		return "", errors.New("no fallback search url configured")
	}
	u, err := url.Parse(s.opts.FallbackURL)
	if err != nil {
		return "", fmt.Errorf("invalid fallback url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	if start > 0 {
		q.Set("s", strconv.Itoa(start))
	}
	u.RawQuery = q.Encode()

	target := u.String()
	if s.opts.ProxyURL == "" {
		return target, nil
	}
	return s.opts.ProxyURL + url.QueryEscape(target), nil
}

func (s *Searcher) fromScrape(ctx context.Context, query string, start int) ([]Opportunity, error) {
	target, err := s.fallbackURL(query, start)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	results, err := parseResults(io.LimitReader(resp.Body, 1<<20), PageSize)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, errors.New("results page had no result blocks")
	}

	now := s.now()
	out := make([]Opportunity, 0, len(results))
	for _, r := range results {
		platform := platformOf(r.url)
		out = append(out, Opportunity{
			Platform: platform,
			Author:   platform,
			Text:     joinText(r.title, r.snippet),
			Date:     now,
			URL:      r.url,
		})
	}
	return out, nil
}

type result struct {
	title   string
	url     string
	snippet string
}

// parseResults walks a DuckDuckGo HTML results page. Each result lives in a
// div whose class list has both "result" and "results_links".
func parseResults(r io.Reader, max int) ([]result, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(out) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attr(n, "class")
			if hasClass(class, "result") && hasClass(class, "results_links") {
				if res := extractResult(n); res.url != "" && res.title != "" {
					out = append(out, res)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func extractResult(n *html.Node) result {
	var res result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attr(n, "class")
			switch {
			case hasClass(class, "result__a"):
				res.url = unwrapRedirect(attr(n, "href"))
				res.title = text(n)
			case hasClass(class, "result__snippet"):
				res.snippet = text(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return res
}

// unwrapRedirect turns DuckDuckGo's "//duckduckgo.com/l/?uddg=<url>" links
// back into the target URL.
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "duckduckgo.com/l/") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("uddg")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(classList, name string) bool {
	for _, c := range strings.Fields(classList) {
		if c == name {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
