package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteSendsChatRequest(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"intent\": \"create_lead\"}"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4o-mini")
	out, err := c.Complete(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "create_lead") {
		t.Errorf("content: %q", out)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Errorf("model: %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.0 {
		t.Errorf("temperature: %v", gotBody["temperature"])
	}
}

func TestCompleteUnconfigured(t *testing.T) {
	c := New("", "", "model")
	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error for unconfigured gateway")
	}
}

func TestCompleteGatewayStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "model")
	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "model")
	if _, err := c.Complete(context.Background(), "x"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", "Sure! Here it is: {\"a\": 1} hope that helps", `{"a": 1}`},
		{"nested braces", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"no json", "sorry, no can do", ""},
		{"unbalanced", `{"a": `, ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractJSON(tc.in); got != tc.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
