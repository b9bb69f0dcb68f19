package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Origin records where a model descriptor came from.
type Origin string

const (
	// OriginPreset is a model from the built-in registry.
	OriginPreset Origin = "preset"
	// OriginHub is a model found through Hub search.
	OriginHub Origin = "hub"
	// OriginLocal is a file imported in place from outside the models dir.
	OriginLocal Origin = "local"
)

// Model describes a GGUF model, on disk or not yet fetched.
type Model struct {
	Name       string    `json:"name"`
	Repo       string    `json:"repo,omitempty"`
	File       string    `json:"file,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	Quant      string    `json:"quant,omitempty"`
	Params     string    `json:"params,omitempty"`
	SHA256     string    `json:"sha256,omitempty"`
	Origin     Origin    `json:"origin,omitempty"`
	Downloaded bool      `json:"downloaded"`
	Local      bool      `json:"local,omitempty"`
	Path       string    `json:"path,omitempty"`
	Modified   time.Time `json:"modified,omitempty"`
}

// OnDisk reports whether the model's weights are already present locally,
// either downloaded into the models dir or imported from elsewhere.
func (m Model) OnDisk() bool {
	return m.Downloaded || m.Local || m.Origin == OriginLocal
}

// DisplayName returns a human-friendly name, falling back to the file stem.
func (m Model) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	base := filepath.Base(m.File)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Progress reports bytes received during a download.
type Progress struct {
	Received int64   `json:"received"`
	Total    int64   `json:"total"`
	Percent  float64 `json:"-"`
}
