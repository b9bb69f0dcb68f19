package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeanpaul/alacrity/internal/engine"
)

// sessionFile is the on-disk form of a session.
type sessionFile struct {
	ID        string           `json:"id"`
	Model     string           `json:"model"`
	StartedAt time.Time        `json:"started_at"`
	Messages  []engine.Message `json:"messages"`
}

// Save persists the session and returns the file path.
func (s *Session) Save() (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, s.id+".json")
	data, err := json.MarshalIndent(sessionFile{
		ID:        s.id,
		Model:     s.model,
		StartedAt: s.startedAt,
		Messages:  s.messages,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, data, 0644)
}

// LoadSession restores a session from its file.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	s := &Session{
		maxTokens: 8192,
		id:        f.ID,
		dir:       filepath.Dir(path),
		model:     f.Model,
		startedAt: f.StartedAt,
		messages:  f.Messages,
	}
	s.recalcTokens()
	return s, nil
}

// SessionInfo summarizes a stored session for resume listings.
type SessionInfo struct {
	Path      string
	ID        string
	Model     string
	StartedAt time.Time
	Turns     int
}

// ListSessions returns stored sessions under dir, newest first. Unreadable
// files are skipped.
func ListSessions(dir string) ([]SessionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []SessionInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var f sessionFile
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		turns := 0
		for _, m := range f.Messages {
			if m.Role == engine.RoleUser {
				turns++
			}
		}
		infos = append(infos, SessionInfo{
			Path:      path,
			ID:        f.ID,
			Model:     f.Model,
			StartedAt: f.StartedAt,
			Turns:     turns,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].StartedAt.After(infos[j].StartedAt)
	})
	return infos, nil
}

// Latest returns the most recent stored session, if any.
func Latest(dir string) (SessionInfo, bool) {
	infos, err := ListSessions(dir)
	if err != nil || len(infos) == 0 {
		return SessionInfo{}, false
	}
	return infos[0], true
}

// Export writes the session as a Markdown transcript.
func (s *Session) Export(path string) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Chat with %s\n\n", s.model))
	sb.WriteString(fmt.Sprintf("_Started %s_\n\n", s.startedAt.Format("2006-01-02 15:04")))
	for _, m := range s.messages {
		switch m.Role {
		case engine.RoleSystem:
			continue
		case engine.RoleUser:
			sb.WriteString("## You\n")
			sb.WriteString(m.Content + "\n\n")
		case engine.RoleAssistant:
			sb.WriteString(fmt.Sprintf("## %s\n", s.model))
			sb.WriteString(m.Content + "\n\n")
		}
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
