// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package credibility

// domainScores is the built-in domain reputation table. Read-only after
// init; safe for concurrent lookup without locking.
var domainScores = map[string]float64{
	// Tier 1: authoritative scientific and institutional sources.
	"nature.com":             0.95,
	"science.org":            0.95,
	"arxiv.org":              0.93,
	"pubmed.ncbi.nlm.nih.gov": 0.95,
	"scholar.google.com":     0.90,
	"ieee.org":               0.93,
	"acm.org":                0.92,
	"semanticscholar.org":    0.90,
	"who.int":                0.95,
	"cdc.gov":                0.93,
	"nih.gov":                0.94,
	"wikipedia.org":          0.82,
	"en.wikipedia.org":       0.82,
	"britannica.com":         0.88,

	// Tier 2: reputable news and universities.
	"reuters.com":        0.88,
	"apnews.com":         0.88,
	"bbc.com":            0.85,
	"bbc.co.uk":          0.85,
	"nytimes.com":        0.84,
	"washingtonpost.com": 0.83,
	"theguardian.com":    0.82,
	"economist.com":      0.85,
	"wsj.com":            0.84,
	"ft.com":             0.84,
	"bloomberg.com":      0.83,
	"techcrunch.com":     0.78,
	"arstechnica.com":    0.80,
	"wired.com":          0.78,
	"theverge.com":       0.75,
	"mit.edu":            0.90,
	"stanford.edu":       0.90,
	"harvard.edu":        0.90,

	// Tier 3: general platforms.
	"medium.com":   0.55,
	"substack.com": 0.60,
	"reddit.com":   0.50,
	"quora.com":    0.45,
}

// negationPairs is the built-in opposing-claim vocabulary used by
// contradiction detection. Word pairs, positive term first.
var negationPairs = [][2]string{
	{"increase", "decrease"},
	{"rise", "fall"},
	{"higher", "lower"},
	{"growth", "decline"},
	{"benefit", "harm"},
	{"support", "oppose"},
	{"effective", "ineffective"},
	{"safe", "dangerous"},
	{"proven", "unproven"},
	{"confirm", "deny"},
}
