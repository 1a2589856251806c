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

// semanticScholarAPIBase is the Semantic Scholar paper search endpoint.
// Declared as a var so tests can substitute an httptest server.
var semanticScholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticScholarFields = "title,abstract,authors,year,citationCount,url,externalIds"

// SemanticScholarConnector searches Semantic Scholar for academic papers
// with citation data. The API rate-limits anonymous callers aggressively,
// so requests go through the shared retry helper.
type SemanticScholarConnector struct {
	Client *http.Client
	Config types.SearchConfig
}

// Name returns the connector identifier.
func (c *SemanticScholarConnector) Name() string { return "semantic_scholar" }

type scholarResponse struct {
	Data []scholarPaper `json:"data"`
}

type scholarPaper struct {
	Title         string          `json:"title"`
	Abstract      string          `json:"abstract"`
	Authors       []scholarAuthor `json:"authors"`
	Year          int             `json:"year"`
	CitationCount int             `json:"citationCount"`
	URL           string          `json:"url"`
	ExternalIDs   map[string]any  `json:"externalIds"`
}

type scholarAuthor struct {
	Name string `json:"name"`
}

// Search queries the Graph API and returns papers that carry an abstract.
func (c *SemanticScholarConnector) Search(ctx context.Context, query string) ([]types.SourceRecord, error) {
	maxResults := c.Config.MaxAcademicResults
	if maxResults <= 0 {
		maxResults = 5
	}
	maxLen := c.Config.MaxContentLength
	if maxLen <= 0 {
		maxLen = 4000
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(maxResults)},
		"fields": {semanticScholarFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticScholarAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)
	if c.Config.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", c.Config.SemanticScholarAPIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var parsed scholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.SourceRecord
	for _, paper := range parsed.Data {
		// Papers without abstracts carry no usable evidence.
		if paper.Abstract == "" {
			continue
		}

		paperURL := paper.URL
		if paperURL == "" {
			if doi, ok := paper.ExternalIDs["DOI"].(string); ok && doi != "" {
				paperURL = "https://doi.org/" + doi
			}
		}
		if paperURL == "" {
			continue
		}

		year := "N/A"
		if paper.Year > 0 {
			year = strconv.Itoa(paper.Year)
		}

		content := fmt.Sprintf("**%s**\n\n**Authors**: %s\n**Year**: %s\n**Citations**: %d\n\n**Abstract**: %s\n",
			paper.Title,
			formatScholarAuthors(paper.Authors),
			year,
			paper.CitationCount,
			paper.Abstract)

		records = append(records, types.NewSourceRecord(
			paper.Title,
			paperURL,
			clip(paper.Abstract, 300),
			clip(content, maxLen),
			types.SourceAcademic,
		))
	}
	return records, nil
}

func formatScholarAuthors(authors []scholarAuthor) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	if len(names) <= 5 {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:5], ", ") + " et al."
}
