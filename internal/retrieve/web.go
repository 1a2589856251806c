// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/pdiddy/deep-research/pkg/types"
)

// duckduckgoBase is the DuckDuckGo HTML search endpoint. Declared as a var
// so tests can substitute an httptest server.
var duckduckgoBase = "https://html.duckduckgo.com/html/"

// browserUserAgent is sent to DuckDuckGo, which rejects obvious bot agents.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// fetchArticle extracts readable text from a page. Var so tests can stub
// out the network fetch.
var fetchArticle = func(pageURL string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(pageURL, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// WebConnector searches the open web through the DuckDuckGo HTML interface
// and enriches the top results with readable page content.
type WebConnector struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the connector identifier.
func (c *WebConnector) Name() string { return "web" }

// Search queries DuckDuckGo and returns web results. Full page content is
// fetched for the top Config.FetchTopContent results in parallel; a failed
// content fetch leaves the record with its snippet only.
func (c *WebConnector) Search(ctx context.Context, query string) ([]types.SourceRecord, error) {
	maxResults := c.Config.MaxWebResults
	if maxResults <= 0 {
		maxResults = 10
	}

	searchURL := duckduckgoBase + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DuckDuckGo returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	records, err := parseDuckDuckGo(string(body), maxResults)
	if err != nil {
		return nil, err
	}

	c.fetchContents(ctx, records)
	return records, nil
}

// fetchContents fills Content for the top results in parallel. A
// non-positive FetchTopContent disables content fetching.
func (c *WebConnector) fetchContents(ctx context.Context, records []types.SourceRecord) {
	top := c.Config.FetchTopContent
	if top <= 0 {
		return
	}
	if top > len(records) {
		top = len(records)
	}

	timeout := c.Config.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxLen := c.Config.MaxContentLength
	if maxLen <= 0 {
		maxLen = 4000
	}

	var wg sync.WaitGroup
	for i := 0; i < top; i++ {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(rec *types.SourceRecord) {
			defer wg.Done()
			text, err := fetchArticle(rec.URL, timeout)
			if err != nil {
				return
			}
			rec.Content = clip(strings.TrimSpace(text), maxLen)
		}(&records[i])
	}
	wg.Wait()
}

func (c *WebConnector) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// parseDuckDuckGo extracts search results from the DuckDuckGo HTML page.
// Result blocks are divs whose class contains both "result" and
// "results_links".
func parseDuckDuckGo(page string, maxResults int) ([]types.SourceRecord, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing DuckDuckGo HTML: %w", err)
	}

	var records []types.SourceRecord
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(records) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attrValue(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if rec, ok := extractResult(n); ok {
					records = append(records, rec)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return records, nil
}

// extractResult pulls title, URL, and snippet out of one result div.
func extractResult(n *html.Node) (types.SourceRecord, bool) {
	var title, href, snippet string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attrValue(n, "class")
			if strings.Contains(class, "result__a") {
				href = attrValue(n, "href")
				title = textContent(n)
			} else if strings.Contains(class, "result__snippet") {
				snippet = textContent(n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	href = unwrapRedirect(href)
	if href == "" || title == "" {
		return types.SourceRecord{}, false
	}
	return types.NewSourceRecord(title, href, snippet, "", types.SourceWeb), true
}

// unwrapRedirect resolves DuckDuckGo's /l/?uddg= redirect links to the
// destination URL.
func unwrapRedirect(href string) string {
	const prefix = "//duckduckgo.com/l/?uddg="
	if !strings.HasPrefix(href, prefix) {
		return href
	}
	decoded, err := url.QueryUnescape(strings.TrimPrefix(href, prefix))
	if err != nil {
		return href
	}
	if idx := strings.Index(decoded, "&"); idx > 0 {
		decoded = decoded[:idx]
	}
	return decoded
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
