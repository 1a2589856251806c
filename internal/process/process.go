// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process normalizes raw connector content into clean, bounded text.
// Cleaning happens before credibility scoring so content-quality signals see
// the same text the synthesizer will.
package process

import (
	"regexp"
	"strings"
)

// Web artifacts stripped from fetched page text. Removal runs before
// whitespace collapsing so Clean is idempotent.
var (
	newsletterPattern = regexp.MustCompile(`(?i)Subscribe.*?newsletter`)
	adPattern         = regexp.MustCompile(`(?i)Advertisement`)
	cookiePattern     = regexp.MustCompile(`(?i)Cookie\s*(policy|consent|notice).*?\n`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)

	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

// Clean strips common web artifacts and normalizes whitespace. It is
// idempotent: Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = newsletterPattern.ReplaceAllString(text, "")
	text = adPattern.ReplaceAllString(text, "")
	text = cookiePattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate bounds text to maxLen characters, preferring to break at the
// last sentence end when one falls in the final 30% of the window.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	truncated := text[:maxLen]
	if lastPeriod := strings.LastIndex(truncated, "."); lastPeriod > maxLen*7/10 {
		return truncated[:lastPeriod+1]
	}
	return truncated + "..."
}

var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// KeySentences returns up to maxSentences informative sentences from text,
// dropping fragments shorter than 20 characters and runs longer than 500.
func KeySentences(text string, maxSentences int) string {
	if text == "" || maxSentences <= 0 {
		return ""
	}
	split := sentenceEnd.ReplaceAllString(text, "$1\x00")
	var kept []string
	for _, s := range strings.Split(split, "\x00") {
		s = strings.TrimSpace(s)
		if len(s) > 20 && len(s) < 500 {
			kept = append(kept, s)
		}
		if len(kept) == maxSentences {
			break
		}
	}
	return strings.Join(kept, " ")
}
