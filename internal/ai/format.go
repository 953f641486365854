package ai

import "strings"

// Format wraps text in the expandable quote markers. Text containing a code
// fence or already wrapped is returned as is.
func Format(text string, quote bool) string {
	if !quote || text == "" {
		return text
	}
	if strings.Contains(text, CodeFence) {
		return text
	}
	if IsQuoted(text) {
		return text
	}
	return QuoteOpen + text + QuoteClose
}

func IsQuoted(text string) bool {
	return strings.HasPrefix(text, QuoteOpen) && strings.HasSuffix(text, QuoteClose)
}
