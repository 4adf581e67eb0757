package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty input", "", "No content available"},
		{"whitespace only", "   \n\t  ", "No content available"},
		{"plain text passes through", "Hello there", "Hello there"},
		{"html stripped", "<div><p>Hello</p> <b>world</b></div>", "Hello world"},
		{"whitespace collapsed", "Hello\n\n\n   world\t!", "Hello world !"},
		{"signature delimiter removed", "Main text\n-- \nJane Doe\nAcme Corp", "Main text"},
		{"mobile signature removed", "Quick note\nSent from my iPhone", "Quick note"},
		{"outlook signature removed", "Body\nGet Outlook for Android", "Body"},
		{"tags only yields fallback", "<br><img src='x'>", "No readable content found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanContent(tt.in, 2000))
		})
	}
}

func TestCleanContentTruncation(t *testing.T) {
	long := strings.Repeat("a", 50)

	got := CleanContent(long, 10)
	assert.Equal(t, strings.Repeat("a", 10)+"...", got)

	// Truncation counts runes, not bytes.
	got = CleanContent(strings.Repeat("ü", 20), 5)
	assert.Equal(t, "üüüüü...", got)

	// Under the cap, no ellipsis.
	assert.Equal(t, long, CleanContent(long, 50))
}
