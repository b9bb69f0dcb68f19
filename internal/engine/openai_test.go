package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAICompatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req oaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q", req.Model)
		}
		if !req.Stream || req.StreamOptions == nil || !req.StreamOptions.IncludeUsage {
			t.Error("stream with usage not requested")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"Hel"},"finish_reason":null}]}` + "\n\n"))
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"lo"},"finish_reason":null}]}` + "\n\n"))
		w.Write([]byte(`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}` + "\n\n"))
		// Usage arrives after finish_reason, in its own chunk.
		w.Write([]byte(`data: {"choices":[],"usage":{"prompt_tokens":9,"completion_tokens":2}}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	e := NewOpenAICompat(srv.URL, "", "test-model")
	ch, err := e.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	text, done := collect(t, ch)
	if text != "Hello" {
		t.Errorf("text = %q", text)
	}
	if done.Usage == nil {
		t.Fatal("usage chunk after finish_reason was dropped")
	}
	if done.Usage.PromptTokens != 9 || done.Usage.CompletionTokens != 2 {
		t.Errorf("usage = %+v", done.Usage)
	}
}

func TestOpenAICompatWrapsPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req oaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "raw prompt" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	e := NewOpenAICompat(srv.URL, "", "m")
	ch, err := e.Complete(context.Background(), Request{Prompt: "raw prompt"})
	if err != nil {
		t.Fatal(err)
	}
	collect(t, ch)
}

func TestOpenAICompatTimingsExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"choices":[{"delta":{"content":"x"},"finish_reason":"stop"}],"timings":{"prompt_n":10,"prompt_ms":100,"predicted_n":20,"predicted_ms":200}}` + "\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	}))
	defer srv.Close()

	e := NewOpenAICompat(srv.URL, "", "m")
	ch, err := e.Complete(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatal(err)
	}
	_, done := collect(t, ch)
	if done.Timings == nil {
		t.Fatal("llama-server timings extension not parsed")
	}
	if got := done.Timings.PredictedTPS(); got != 100 {
		t.Errorf("PredictedTPS = %v, want 100", got)
	}
}
