package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	srv := newTestServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"{\"subject\":\"Hi\"}"}}]}`,
		func(r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("missing bearer token")
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		})

	client := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1"})

	text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "write"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"subject":"Hi"}` {
		t.Errorf("unexpected text %q", text)
	}

	if got.Model != DefaultModel || got.MaxTokens != DefaultMaxTokens {
		t.Errorf("unexpected request defaults: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Content != DefaultSystemPrompt {
		t.Errorf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAIClient_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "choice text", body: `{"choices":[{"text":"plain"}]}`, want: "plain"},
		{name: "output_text", body: `{"output_text":"out"}`, want: "out"},
		{name: "text", body: `{"text":"t"}`, want: "t"},
		{name: "unknown json", body: `{"foo":1}`, want: `{"foo":1}`},
		{name: "not json", body: `hello`, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, http.StatusOK, tt.body, nil)
			client := NewOpenAIClient(Config{BaseURL: srv.URL})

			text, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if text != tt.want {
				t.Errorf("expected %q, got %q", tt.want, text)
			}
		})
	}
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		rateLimited bool
	}{
		{
			name:        "429",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded"}}`,
			rateLimited: true,
		},
		{
			name:        "quota",
			status:      http.StatusForbidden,
			body:        `{"error":{"message":"no money","type":"insufficient_quota","code":"insufficient_quota"}}`,
			rateLimited: true,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.status, tt.body, nil)
			client := NewOpenAIClient(Config{BaseURL: srv.URL})

			_, err := client.Complete(context.Background(), CompletionRequest{Prompt: "p"})

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T (%v)", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if IsRateLimited(err) != tt.rateLimited {
				t.Errorf("expected IsRateLimited=%v", tt.rateLimited)
			}
		})
	}
}

func TestIsRateLimited_Wrapped(t *testing.T) {
	err := fmt.Errorf("call: %w", &APIError{StatusCode: 429})
	if !IsRateLimited(err) {
		t.Error("wrapped 429 should be rate limited")
	}
	if IsRateLimited(errors.New("timeout")) {
		t.Error("plain error should not be rate limited")
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		subject string
		ok      bool
	}{
		{name: "plain json", raw: `{"subject":"A","body":"B"}`, subject: "A", ok: true},
		{name: "wrapped in prose", raw: "Sure!\n```json\n{\"subject\":\"A\"}\n```", subject: "A", ok: true},
		{name: "no object", raw: "no json here", ok: false},
		{name: "broken object", raw: "{subject: A}", ok: false},
		{name: "array", raw: `["a"]`, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := ExtractJSON(tt.raw)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && obj["subject"] != tt.subject {
				t.Errorf("expected subject %q, got %v", tt.subject, obj["subject"])
			}
		})
	}
}
