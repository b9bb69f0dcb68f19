// Package chat keeps conversation state for interactive sessions with a
// local model, including token-budget compaction and transcript persistence.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeanpaul/alacrity/internal/engine"
)

// Session is one conversation. Small models have small context windows, so
// the session tracks an approximate token count and compacts old turns
// before they overflow.
type Session struct {
	messages    []engine.Message
	maxTokens   int
	totalTokens int
	id          string
	dir         string
	model       string
	startedAt   time.Time
}

// NewSession starts an empty session persisted under dir.
func NewSession(dir, model string) *Session {
	return &Session{
		maxTokens: 8192,
		id:        fmt.Sprintf("%d", time.Now().UnixNano()),
		dir:       dir,
		model:     model,
		startedAt: time.Now(),
	}
}

// ID returns the session identifier used for its file name.
func (s *Session) ID() string { return s.id }

// Model returns the model name the session was started with.
func (s *Session) Model() string { return s.model }

// SetMaxTokens adjusts the context budget, typically to the served model's
// context size.
func (s *Session) SetMaxTokens(max int) {
	if max > 0 {
		s.maxTokens = max
	}
}

// SetSystem installs or replaces the system prompt.
func (s *Session) SetSystem(content string) {
	msg := engine.Message{Role: engine.RoleSystem, Content: content}
	if len(s.messages) > 0 && s.messages[0].Role == engine.RoleSystem {
		s.totalTokens -= estimateTokens(s.messages[0].Content)
		s.messages[0] = msg
	} else {
		s.messages = append([]engine.Message{msg}, s.messages...)
	}
	s.totalTokens += estimateTokens(content)
}

func (s *Session) AddUser(content string) {
	s.messages = append(s.messages, engine.Message{Role: engine.RoleUser, Content: content})
	s.totalTokens += estimateTokens(content)
	s.compactIfNeeded()
}

func (s *Session) AddAssistant(content string) {
	s.messages = append(s.messages, engine.Message{Role: engine.RoleAssistant, Content: content})
	s.totalTokens += estimateTokens(content)
}

func (s *Session) Messages() []engine.Message {
	return s.messages
}

func (s *Session) Len() int {
	return len(s.messages)
}

func (s *Session) EstimatedTokens() int {
	return s.totalTokens
}

func (s *Session) compactIfNeeded() {
	if s.totalTokens < s.maxTokens*80/100 {
		return
	}
	s.Compact()
}

// Compact folds older turns into a short summary, keeping the system prompt
// and the last three exchanges verbatim.
func (s *Session) Compact() {
	if len(s.messages) <= 4 {
		return
	}

	var system *engine.Message
	start := 0
	if s.messages[0].Role == engine.RoleSystem {
		sys := s.messages[0]
		system = &sys
		start = 1
	}

	remaining := s.messages[start:]
	if len(remaining) <= 6 {
		return
	}

	cutoff := len(remaining) - 6
	var summary strings.Builder
	summary.WriteString("[Earlier conversation]\n")
	for _, m := range remaining[:cutoff] {
		switch m.Role {
		case engine.RoleUser:
			summary.WriteString(fmt.Sprintf("User: %s\n", truncateText(m.Content, 100)))
		case engine.RoleAssistant:
			summary.WriteString(fmt.Sprintf("Assistant: %s\n", truncateText(m.Content, 100)))
		}
	}

	var compacted []engine.Message
	if system != nil {
		compacted = append(compacted, *system)
	}
	compacted = append(compacted,
		engine.Message{Role: engine.RoleUser, Content: summary.String()},
		engine.Message{Role: engine.RoleAssistant, Content: "Understood. I have the conversation context."},
	)
	compacted = append(compacted, remaining[cutoff:]...)

	s.messages = compacted
	s.recalcTokens()
}

// Clear removes all non-system messages.
func (s *Session) Clear() {
	var kept []engine.Message
	for _, m := range s.messages {
		if m.Role == engine.RoleSystem {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	s.recalcTokens()
}

func (s *Session) recalcTokens() {
	s.totalTokens = 0
	for _, m := range s.messages {
		s.totalTokens += estimateTokens(m.Content)
	}
}

// estimateTokens gives a rough count (~4 chars per token).
func estimateTokens(s string) int {
	return len(s) / 4
}

func truncateText(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
