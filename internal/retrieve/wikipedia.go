// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/deep-research/internal/httputil"
	"github.com/pdiddy/deep-research/pkg/types"
)

// wikipediaAPIBase is the MediaWiki API endpoint. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

// WikipediaConnector retrieves encyclopedia articles for foundational
// context. Retrieval is two MediaWiki calls: a title search followed by an
// intro extract per page.
type WikipediaConnector struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the connector identifier.
func (c *WikipediaConnector) Name() string { return "wikipedia" }

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiExtractResponse struct {
	Query struct {
		Pages map[string]struct {
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Search queries Wikipedia and returns article intros. A page whose
// extract call fails is skipped rather than failing the whole search.
func (c *WikipediaConnector) Search(ctx context.Context, query string) ([]types.SourceRecord, error) {
	maxResults := c.Config.MaxWikipediaResults
	if maxResults <= 0 {
		maxResults = 3
	}
	maxLen := c.Config.MaxContentLength
	if maxLen <= 0 {
		maxLen = 4000
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {strconv.Itoa(maxResults)},
		"format":   {"json"},
	}

	var searchResp wikiSearchResponse
	if err := c.get(ctx, params, &searchResp); err != nil {
		return nil, fmt.Errorf("Wikipedia search: %w", err)
	}

	var records []types.SourceRecord
	for _, page := range searchResp.Query.Search {
		extract, err := c.pageExtract(ctx, page.Title)
		if err != nil {
			continue
		}

		pageURL := "https://en.wikipedia.org/wiki/" + strings.ReplaceAll(page.Title, " ", "_")
		records = append(records, types.SourceRecord{
			Title:      page.Title,
			URL:        pageURL,
			Snippet:    clip(extract, 300),
			Content:    clip(extract, maxLen),
			SourceType: types.SourceWikipedia,
			Domain:     "en.wikipedia.org",
		})
	}
	return records, nil
}

// pageExtract fetches the plain-text intro of one article.
func (c *WikipediaConnector) pageExtract(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"extracts"},
		"exintro":     {"true"},
		"explaintext": {"true"},
		"format":      {"json"},
	}

	var resp wikiExtractResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", err
	}
	for _, page := range resp.Query.Pages {
		return page.Extract, nil
	}
	return "", fmt.Errorf("no page data for %q", title)
}

func (c *WikipediaConnector) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Wikipedia API returned HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
