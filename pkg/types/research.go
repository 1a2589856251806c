// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared across research stages.
package types

import (
	"net/url"
	"strings"
)

// SourceType identifies which kind of connector produced a source.
type SourceType string

const (
	SourceWeb       SourceType = "web"
	SourceWikipedia SourceType = "wikipedia"
	SourceAcademic  SourceType = "academic"
)

// SourceRecord is one piece of retrieved evidence. URL is the unique key:
// the retriever and the orchestrator both deduplicate on it.
type SourceRecord struct {
	// Title is the page or paper title as returned by the connector.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical location of the source.
	URL string `json:"url" yaml:"url"`

	// Snippet is a short preview of the content.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Content is the cleaned body text, bounded by the processor.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// SourceType identifies the connector category (web, wikipedia, academic).
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// Domain is the URL's host with a leading "www." stripped. Empty when
	// the URL does not parse.
	Domain string `json:"domain" yaml:"domain"`

	// CredibilityScore is a [0,1] reputation/quality estimate. Zero until
	// the credibility scorer has seen the record.
	CredibilityScore float64 `json:"credibility_score" yaml:"credibility_score"`
}

// DomainOf derives the reputation-lookup domain from a URL. The derivation
// is deterministic: host of the parsed URL, lowercased, "www." stripped;
// unparsable URLs yield "".
func DomainOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NewSourceRecord builds a record with the domain derived from the URL.
func NewSourceRecord(title, rawURL, snippet, content string, st SourceType) SourceRecord {
	return SourceRecord{
		Title:      title,
		URL:        rawURL,
		Snippet:    snippet,
		Content:    content,
		SourceType: st,
		Domain:     DomainOf(rawURL),
	}
}

// Contradiction records a lexical cue that two sources make opposing claims.
// It is a signal surfaced to synthesis, not a verified conflict.
type Contradiction struct {
	// SourceA is the title of the first source.
	SourceA string `json:"source1" yaml:"source1"`

	// SourceB is the title of the second source.
	SourceB string `json:"source2" yaml:"source2"`

	// Signal is a human-readable cue, e.g. "'increase' vs 'decrease'".
	Signal string `json:"signal" yaml:"signal"`
}

// ResearchReport is the final output of one research run.
type ResearchReport struct {
	// Query is the original research question.
	Query string `json:"query" yaml:"query"`

	// ReportMarkdown is the synthesized report body, bibliography included.
	ReportMarkdown string `json:"report_markdown" yaml:"report_markdown"`

	// Sources is the accumulated, deduplicated evidence set.
	Sources []SourceRecord `json:"sources" yaml:"sources"`

	// Iterations is the number of research iterations actually executed.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Contradictions lists every contradiction signal found, in detection order.
	Contradictions []Contradiction `json:"contradictions" yaml:"contradictions"`
}
