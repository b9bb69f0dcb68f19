package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(dir, "llama-3.2-1b")
	s.SetSystem("be brief")
	s.AddUser("what is a quant?")
	s.AddAssistant("a compressed weight format")

	path, err := s.Save()
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("saved outside session dir: %s", path)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded.Model() != "llama-3.2-1b" {
		t.Errorf("Model() = %q", loaded.Model())
	}
	if loaded.ID() != s.ID() {
		t.Errorf("ID changed across reload: %q vs %q", loaded.ID(), s.ID())
	}
	if loaded.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", loaded.Len())
	}
	if loaded.Messages()[2].Content != "a compressed weight format" {
		t.Errorf("messages lost: %v", loaded.Messages())
	}
	if loaded.EstimatedTokens() == 0 {
		t.Error("token estimate should be rebuilt on load")
	}
}

func TestLoadSessionRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSession(path); err == nil {
		t.Fatal("garbage session file should not load")
	}
}

func TestListSessions(t *testing.T) {
	dir := t.TempDir()

	old := NewSession(dir, "llama-3.2-1b")
	old.id = "100"
	old.startedAt = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	old.AddUser("first")
	old.AddAssistant("ok")
	if _, err := old.Save(); err != nil {
		t.Fatal(err)
	}

	recent := NewSession(dir, "qwen2.5-7b")
	recent.id = "200"
	recent.startedAt = time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC)
	recent.AddUser("second")
	recent.AddUser("third")
	if _, err := recent.Save(); err != nil {
		t.Fatal(err)
	}

	// Unparseable files are skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	infos, err := ListSessions(dir)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d sessions, want 2", len(infos))
	}
	if infos[0].ID != "200" || infos[1].ID != "100" {
		t.Errorf("order = %s, %s, want newest first", infos[0].ID, infos[1].ID)
	}
	if infos[0].Model != "qwen2.5-7b" || infos[0].Turns != 2 {
		t.Errorf("infos[0] = %+v", infos[0])
	}
}

func TestListSessionsMissingDir(t *testing.T) {
	infos, err := ListSessions(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("got %d sessions from missing dir", len(infos))
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if _, ok := Latest(dir); ok {
		t.Error("empty dir should have no latest session")
	}

	s := NewSession(dir, "m")
	s.AddUser("hi")
	if _, err := s.Save(); err != nil {
		t.Fatal(err)
	}

	info, ok := Latest(dir)
	if !ok || info.ID != s.ID() {
		t.Errorf("Latest = %+v, %v", info, ok)
	}
}

func TestExportTranscript(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(dir, "llama-3.2-1b")
	s.SetSystem("hidden instructions")
	s.AddUser("what is a quant?")
	s.AddAssistant("a compressed weight format")

	path := filepath.Join(dir, "transcript.md")
	if err := s.Export(path); err != nil {
		t.Fatalf("Export: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, "# Chat with llama-3.2-1b") {
		t.Errorf("missing title:\n%s", text)
	}
	if !strings.Contains(text, "## You\nwhat is a quant?") {
		t.Errorf("missing user turn:\n%s", text)
	}
	if !strings.Contains(text, "## llama-3.2-1b\na compressed weight format") {
		t.Errorf("missing assistant turn:\n%s", text)
	}
	if strings.Contains(text, "hidden instructions") {
		t.Error("system prompt should not export")
	}
}
