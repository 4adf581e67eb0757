package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSummarize(t *testing.T) {
	t.Run("posts cleaned content and returns the summary", func(t *testing.T) {
		var received map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			_ = json.NewEncoder(w).Encode(map[string]string{"summary": "short version"})
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		summary, err := client.Summarize(context.Background(), "<p>Hello   world</p>")
		require.NoError(t, err)

		assert.Equal(t, "short version", summary)
		assert.Equal(t, "Hello world", received["email_content"])
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "workflow exploded", http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.URL, "")
		_, err := client.Summarize(context.Background(), "text")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})

	t.Run("missing URL is an error", func(t *testing.T) {
		client := NewClient("", "")
		_, err := client.Summarize(context.Background(), "text")
		assert.Error(t, err)
	})
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"content field", `{"content":"a"}`, "a"},
		{"summary field", `{"summary":"b"}`, "b"},
		{"response field", `{"response":"c"}`, "c"},
		{"message field", `{"message":"d"}`, "d"},
		{"text field", `{"text":"e"}`, "e"},
		{"first non-empty wins", `{"content":"","summary":"b"}`, "b"},
		{"chat completion array", `[{"message":{"content":"from array"}}]`, "from array"},
		{"unknown shape falls back", `{"foo":"bar"}`, "fallback"},
		{"invalid json falls back", `not json`, "fallback"},
		{"empty array falls back", `[]`, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractText([]byte(tt.body), "fallback"))
		})
	}
}

func TestClientGenerateResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "drafted reply"})
	}))
	defer server.Close()

	client := NewClient("", server.URL)
	response, err := client.GenerateResponse(context.Background(), "original email")
	require.NoError(t, err)
	assert.Equal(t, "drafted reply", response)
}
