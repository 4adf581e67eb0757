package agent

import (
	"regexp"
	"strings"
)

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	signatureRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^--\s*$[\s\S]*`),
		regexp.MustCompile(`(?m)Sent from.*$`),
		regexp.MustCompile(`(?m)Get Outlook for.*$`),
	}
)

// CleanContent prepares email text for the workflow webhooks: HTML tags
// stripped, common signature lines removed, whitespace collapsed, and the
// result capped at maxLen runes to stay under the agent's token limits.
func CleanContent(content string, maxLen int) string {
	if strings.TrimSpace(content) == "" {
		return "No content available"
	}

	cleaned := htmlTagRe.ReplaceAllString(content, "")
	for _, re := range signatureRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = strings.TrimSpace(whitespaceRe.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return "No readable content found"
	}

	runes := []rune(cleaned)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return cleaned
}
