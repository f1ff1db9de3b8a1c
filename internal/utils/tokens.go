package utils

// Token estimates use the rough 1 token ~= 4 characters rule. They size
// prompts for logging and dry runs; providers report the real counts.

// CountTokens estimates the number of tokens in text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / 4
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TokenBreakdown returns the estimated token count of each labeled section.
func TokenBreakdown(sections map[string]string) map[string]int {
	out := make(map[string]int, len(sections))
	for k, v := range sections {
		out[k] = CountTokens(v)
	}
	return out
}
