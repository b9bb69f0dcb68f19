package chat

import (
	"strings"
	"testing"

	"github.com/jeanpaul/alacrity/internal/engine"
)

func TestSessionAddsTurns(t *testing.T) {
	s := NewSession(t.TempDir(), "llama-3.2-1b")
	s.AddUser("hello there")
	s.AddAssistant("hi, how can I help?")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	msgs := s.Messages()
	if msgs[0].Role != engine.RoleUser || msgs[1].Role != engine.RoleAssistant {
		t.Errorf("roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
	want := len("hello there")/4 + len("hi, how can I help?")/4
	if s.EstimatedTokens() != want {
		t.Errorf("EstimatedTokens() = %d, want %d", s.EstimatedTokens(), want)
	}
}

func TestSetSystem(t *testing.T) {
	s := NewSession(t.TempDir(), "m")
	s.AddUser("question")
	s.SetSystem("first prompt")

	if s.Messages()[0].Role != engine.RoleSystem {
		t.Fatal("system prompt should be first")
	}
	if s.Messages()[1].Content != "question" {
		t.Error("user message lost when system prompt prepended")
	}

	s.SetSystem("second prompt")
	if s.Len() != 2 {
		t.Errorf("Len() = %d, replacement should not grow the session", s.Len())
	}
	if got := s.Messages()[0].Content; got != "second prompt" {
		t.Errorf("system = %q, want replacement", got)
	}
}

func TestCompactKeepsRecentTurns(t *testing.T) {
	s := NewSession(t.TempDir(), "m")
	s.SetSystem("be brief")
	for i := 0; i < 10; i++ {
		s.AddUser(strings.Repeat("q", 20))
		s.AddAssistant(strings.Repeat("a", 20))
	}
	s.AddUser("final question")

	s.Compact()

	msgs := s.Messages()
	if msgs[0].Role != engine.RoleSystem {
		t.Error("system prompt must survive compaction")
	}
	if !strings.Contains(msgs[1].Content, "[Earlier conversation]") {
		t.Errorf("msgs[1] should be the summary, got %q", msgs[1].Content)
	}
	if msgs[2].Role != engine.RoleAssistant {
		t.Errorf("msgs[2] should acknowledge the summary, got role %s", msgs[2].Role)
	}
	if got := len(msgs); got != 9 {
		t.Errorf("Len() = %d, want system + summary pair + last 6", got)
	}
	if last := msgs[len(msgs)-1]; last.Content != "final question" {
		t.Errorf("latest turn lost: %q", last.Content)
	}
}

func TestCompactNoopWhenShort(t *testing.T) {
	s := NewSession(t.TempDir(), "m")
	s.AddUser("one")
	s.AddAssistant("two")
	s.AddUser("three")

	s.Compact()
	if s.Len() != 3 {
		t.Errorf("short session should not compact, Len() = %d", s.Len())
	}
}

func TestAutoCompactStaysUnderBudget(t *testing.T) {
	s := NewSession(t.TempDir(), "m")
	s.SetMaxTokens(100)
	for i := 0; i < 10; i++ {
		s.AddUser(strings.Repeat("x", 200))
		s.AddAssistant(strings.Repeat("y", 200))
	}

	if s.Len() > 9 {
		t.Errorf("Len() = %d, auto compaction should bound the session", s.Len())
	}
}

func TestClearKeepsSystem(t *testing.T) {
	s := NewSession(t.TempDir(), "m")
	s.SetSystem("rules")
	s.AddUser("q")
	s.AddAssistant("a")

	s.Clear()

	if s.Len() != 1 || s.Messages()[0].Role != engine.RoleSystem {
		t.Errorf("Clear should keep only the system prompt, got %v", s.Messages())
	}
	if s.EstimatedTokens() != len("rules")/4 {
		t.Errorf("EstimatedTokens() = %d after clear", s.EstimatedTokens())
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("short", 10); got != "short" {
		t.Errorf("truncateText(short) = %q", got)
	}
	if got := truncateText("line\nbreak", 20); got != "line break" {
		t.Errorf("newlines should flatten, got %q", got)
	}
	if got := truncateText(strings.Repeat("z", 30), 5); got != "zzzzz..." {
		t.Errorf("truncateText long = %q", got)
	}
}
