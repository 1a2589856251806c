package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/deep-research/internal/agent"
	"github.com/pdiddy/deep-research/internal/credibility"
	"github.com/pdiddy/deep-research/internal/decompose"
	"github.com/pdiddy/deep-research/internal/llm"
	"github.com/pdiddy/deep-research/internal/retrieve"
	"github.com/pdiddy/deep-research/internal/synthesize"
	"github.com/pdiddy/deep-research/pkg/types"
)

func init() {
	viper.SetDefault("search.timeout", "15s")
	viper.SetDefault("search.user_agent", "deep-research/0.1 (research-bot)")
	viper.SetDefault("search.max_web_results", 10)
	viper.SetDefault("search.max_wikipedia_results", 3)
	viper.SetDefault("search.max_academic_results", 5)
	viper.SetDefault("search.max_content_length", 4000)
	viper.SetDefault("search.max_concurrent", 8)
	viper.SetDefault("search.requests_per_minute", 60)
	viper.SetDefault("search.fetch_top_content", 5)

	viper.SetDefault("ai.model", "gemini-2.0-flash")
	viper.SetDefault("ai.max_output_tokens", 8192)
	viper.SetDefault("ai.temperature", 0.3)
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("research.max_iterations", 3)
	viper.SetDefault("research.max_sub_queries", 5)
	viper.SetDefault("research.max_followups", 3)
	viper.SetDefault("research.credibility_threshold", 0.5)
	viper.SetDefault("research.completeness_target", 0.8)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.static_dir", "static")
	viper.SetDefault("server.reports_dir", "reports")
	viper.SetDefault("server.max_query_length", 500)
}

// loadConfig assembles the runtime configuration from viper, with API keys
// falling back to the .secrets/ directory.
func loadConfig() types.Config {
	cfg := types.Config{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			MaxWebResults:         viper.GetInt("search.max_web_results"),
			MaxWikipediaResults:   viper.GetInt("search.max_wikipedia_results"),
			MaxAcademicResults:    viper.GetInt("search.max_academic_results"),
			MaxContentLength:      viper.GetInt("search.max_content_length"),
			MaxConcurrent:         viper.GetInt("search.max_concurrent"),
			RequestsPerMinute:     viper.GetInt("search.requests_per_minute"),
			FetchTopContent:       viper.GetInt("search.fetch_top_content"),
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("search.semantic_scholar_api_key")),
		},
		AI: types.AIConfig{
			Model:           viper.GetString("ai.model"),
			APIKey:          secretDefault("google-api-key", viper.GetString("ai.api_key")),
			MaxOutputTokens: viper.GetInt("ai.max_output_tokens"),
			Temperature:     viper.GetFloat64("ai.temperature"),
			MaxRetries:      viper.GetInt("ai.max_retries"),
		},
		Research: types.ResearchConfig{
			MaxIterations:        viper.GetInt("research.max_iterations"),
			MaxSubQueries:        viper.GetInt("research.max_sub_queries"),
			MaxFollowups:         viper.GetInt("research.max_followups"),
			CredibilityThreshold: viper.GetFloat64("research.credibility_threshold"),
			CompletenessTarget:   viper.GetFloat64("research.completeness_target"),
		},
		Server: types.ServerConfig{
			Host:           viper.GetString("server.host"),
			Port:           viper.GetInt("server.port"),
			StaticDir:      viper.GetString("server.static_dir"),
			ReportsDir:     viper.GetString("server.reports_dir"),
			MaxQueryLength: viper.GetInt("server.max_query_length"),
		},
	}
	return cfg
}

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// buildAgent wires the full research stack from configuration.
func buildAgent(ctx context.Context, cfg types.Config, logger *zap.Logger) (*agent.Agent, error) {
	gen, err := llm.NewGemini(ctx, cfg.AI)
	if err != nil {
		return nil, fmt.Errorf("initializing generation client: %w", err)
	}

	timeout := cfg.Search.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	connectors := []retrieve.Connector{
		&retrieve.WebConnector{Client: client, Config: cfg.Search},
		&retrieve.WikipediaConnector{Client: client, Config: cfg.Search},
		&retrieve.ArxivConnector{Client: client, Config: cfg.Search},
		&retrieve.SemanticScholarConnector{Client: client, Config: cfg.Search},
	}
	retriever := retrieve.NewRetriever(connectors, cfg.Search, logger)

	scorer := credibility.NewScorer(credibility.ScorerConfig{
		Threshold: cfg.Research.CredibilityThreshold,
	}, logger)

	decomposer := decompose.New(gen, cfg.AI, cfg.Research, logger)
	synthesizer := synthesize.New(gen, cfg.AI, logger)

	return agent.New(decomposer, retriever, scorer, synthesizer, cfg.Research, cfg.Search, logger), nil
}
