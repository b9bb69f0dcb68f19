package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestParseEngineError(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{503, `{"error":{"message":"Loading model"}}`, "Loading model"},
		{400, `{"message":"prompt too long"}`, "prompt too long"},
		{401, `not json`, "--api-key"},
		{404, ``, "llama.cpp-compatible"},
		{503, `plain text`, "loading"},
		{418, `teapot`, "HTTP 418: teapot"},
	}
	for _, tt := range tests {
		got := parseEngineError(tt.status, []byte(tt.body))
		if !strings.Contains(got, tt.want) {
			t.Errorf("parseEngineError(%d, %q) = %q, want containing %q", tt.status, tt.body, got, tt.want)
		}
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dial tcp 127.0.0.1:8080: connect: connection refused", "is the engine running?"},
		{"dial tcp: lookup nope.invalid: no such host", "engine.base_url"},
		{"context deadline exceeded", "timed out"},
		{"unexpected EOF", "closed unexpectedly"},
		{"something else entirely", "something else entirely"},
	}
	for _, tt := range tests {
		got := friendlyError(errors.New(tt.in))
		if !strings.Contains(got, tt.want) {
			t.Errorf("friendlyError(%q) = %q, want containing %q", tt.in, got, tt.want)
		}
	}
}

func TestTimingsZeroSafe(t *testing.T) {
	var tm Timings
	if tm.PromptTPS() != 0 || tm.PredictedTPS() != 0 {
		t.Error("zero timings should report zero throughput, not NaN")
	}
}

func TestSupervisorPreconditions(t *testing.T) {
	s := NewSupervisor("llama-server", "-m", "model.gguf")
	if err := s.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
	if err := s.WaitReady(context.Background()); err == nil {
		t.Error("WaitReady without a base URL should fail")
	}
}
