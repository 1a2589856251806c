// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/deep-research/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivConnector searches arXiv for academic papers.
type ArxivConnector struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the connector identifier.
func (c *ArxivConnector) Name() string { return "arxiv" }

// Search queries the arXiv Atom API, sorted by relevance, and returns
// paper metadata with a structured abstract block as content.
func (c *ArxivConnector) Search(ctx context.Context, query string) ([]types.SourceRecord, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := c.Config.MaxAcademicResults
	if maxResults <= 0 {
		maxResults = 5
	}
	maxLen := c.Config.MaxContentLength
	if maxLen <= 0 {
		maxLen = 4000
	}

	reqURL := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, strings.Join(terms, "+"), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.SourceRecord
	for _, entry := range feed.Entries {
		title := strings.TrimSpace(entry.Title)
		summary := strings.TrimSpace(entry.Summary)
		if entry.ID == "" || title == "" {
			continue
		}

		var categories []string
		for _, cat := range entry.Categories {
			categories = append(categories, cat.Term)
		}

		content := fmt.Sprintf("**%s**\n\n**Authors**: %s\n**Published**: %s\n**Categories**: %s\n\n**Abstract**: %s\n",
			title,
			formatAuthors(entry.Authors),
			formatPublished(entry.Published),
			strings.Join(categories, ", "),
			summary)

		records = append(records, types.SourceRecord{
			Title:      title,
			URL:        entry.ID,
			Snippet:    clip(summary, 300),
			Content:    clip(content, maxLen),
			SourceType: types.SourceAcademic,
			Domain:     "arxiv.org",
		})
	}
	return records, nil
}

// formatAuthors joins up to five author names, noting the total when more
// were listed.
func formatAuthors(authors []arxivAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, strings.TrimSpace(a.Name))
	}
	if len(names) <= 5 {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors)", strings.Join(names[:5], ", "), len(names))
}

func formatPublished(published string) string {
	t, err := time.Parse(time.RFC3339, published)
	if err != nil {
		return published
	}
	return t.Format("2006-01-02")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}
