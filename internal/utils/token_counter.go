package utils

import "unicode/utf8"

// charsPerToken approximates GPT-family tokenization. Gujarati script
// tokenizes less efficiently than English, so this slightly
// underestimates; the summarization buffer budget absorbs the slack.
const charsPerToken = 4

// EstimateTokens returns a cheap token-count estimate for budget checks.
// It deliberately avoids a tokenizer dependency: the only consumer is
// the rolling summarization buffer, which needs a bound, not a count.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}
