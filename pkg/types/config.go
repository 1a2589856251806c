// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deep-research/0.1 (research-bot)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the retrieval stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxWebResults is the maximum number of web results per sub-query (default 10).
	MaxWebResults int `json:"max_web_results" yaml:"max_web_results"`

	// MaxWikipediaResults is the maximum number of Wikipedia articles per sub-query (default 3).
	MaxWikipediaResults int `json:"max_wikipedia_results" yaml:"max_wikipedia_results"`

	// MaxAcademicResults is the maximum number of academic papers per sub-query
	// and per academic backend (default 5).
	MaxAcademicResults int `json:"max_academic_results" yaml:"max_academic_results"`

	// MaxContentLength bounds the cleaned content kept per source, in
	// characters (default 4000).
	MaxContentLength int `json:"max_content_length" yaml:"max_content_length"`

	// MaxConcurrent caps the number of in-flight connector calls across the
	// whole fan-out (default 8). Zero means no ceiling.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// RequestsPerMinute throttles outbound connector requests to respect
	// upstream rate limits (default 60). Zero disables throttling.
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`

	// FetchTopContent is the number of web results per sub-query whose full
	// page content is fetched and extracted (default 5).
	FetchTopContent int `json:"fetch_top_content" yaml:"fetch_top_content"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`
}

// AIConfig holds settings for calls to the generation capability.
type AIConfig struct {
	// Model is the model identifier (e.g. "gemini-2.0-flash").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the generation API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxOutputTokens bounds the synthesis response length (default 8192).
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`

	// Temperature is the sampling temperature; kept low for factual work
	// (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxRetries is the number of retry attempts for rate-limited or
	// transient generation failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ResearchConfig holds settings for the orchestration loop.
type ResearchConfig struct {
	// MaxIterations is the hard cap on research iterations (default 3).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// MaxSubQueries is the maximum number of sub-queries per decomposition (default 5).
	MaxSubQueries int `json:"max_sub_queries" yaml:"max_sub_queries"`

	// MaxFollowups is the maximum number of follow-up queries generated per
	// iteration (default 3).
	MaxFollowups int `json:"max_followups" yaml:"max_followups"`

	// CredibilityThreshold is the minimum credibility score a source needs to
	// survive filtering (default 0.5).
	CredibilityThreshold float64 `json:"credibility_threshold" yaml:"credibility_threshold"`

	// CompletenessTarget is the completeness score at or above which an
	// is-complete evaluation stops the loop (default 0.8).
	CompletenessTarget float64 `json:"completeness_target" yaml:"completeness_target"`
}

// ServerConfig holds settings for the HTTP/WebSocket surface.
type ServerConfig struct {
	// Host is the listen address (default "0.0.0.0").
	Host string `json:"host" yaml:"host"`

	// Port is the listen port (default 8000).
	Port int `json:"port" yaml:"port"`

	// StaticDir is the directory of static UI assets served at "/".
	StaticDir string `json:"static_dir" yaml:"static_dir"`

	// ReportsDir is the directory finished reports are written to.
	ReportsDir string `json:"reports_dir" yaml:"reports_dir"`

	// MaxQueryLength is the longest accepted research query, in characters
	// (default 500).
	MaxQueryLength int `json:"max_query_length" yaml:"max_query_length"`
}

// Config is the root configuration for the deep-research service.
type Config struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	AI       AIConfig       `json:"ai" yaml:"ai"`
	Research ResearchConfig `json:"research" yaml:"research"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}
