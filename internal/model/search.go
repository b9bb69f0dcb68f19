package model

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

const hubAPI = "https://huggingface.co"

// Searcher queries the Hugging Face Hub for GGUF repositories.
type Searcher struct {
	base   string
	token  string
	client *http.Client
}

// NewSearcher returns a Searcher. token may be empty; gated repos then stay
// invisible.
func NewSearcher(token string) *Searcher {
	return &Searcher{base: hubAPI, token: token, client: &http.Client{}}
}

func (s *Searcher) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("hub request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("hub returned %d for %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Search returns GGUF repos matching query, most downloaded first.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Repo, error) {
	if limit <= 0 {
		limit = 20
	}
	u := fmt.Sprintf("%s/api/models?search=%s&limit=%d&sort=downloads&direction=-1&filter=gguf",
		s.base, url.QueryEscape(query), limit)

	var results []struct {
		ID        string `json:"id"`
		Downloads int    `json:"downloads"`
		Likes     int    `json:"likes"`
	}
	if err := s.get(ctx, u, &results); err != nil {
		return nil, err
	}

	repos := make([]Repo, len(results))
	for i, r := range results {
		repos[i] = Repo{ID: r.ID, Downloads: r.Downloads, Likes: r.Likes}
	}
	return repos, nil
}

// Repo is a Hub repository that carries GGUF files.
type Repo struct {
	ID        string `json:"id"`
	Downloads int    `json:"downloads"`
	Likes     int    `json:"likes"`
}

// Files lists the GGUF files in a repo as downloadable models, with sizes
// from the repo tree.
func (s *Searcher) Files(ctx context.Context, repoID string) ([]Model, error) {
	u := fmt.Sprintf("%s/api/models/%s/tree/main", s.base, repoID)

	var entries []struct {
		Type string `json:"type"`
		Path string `json:"path"`
		Size int64  `json:"size"`
		LFS  *struct {
			Size int64  `json:"size"`
			OID  string `json:"oid"`
		} `json:"lfs"`
	}
	if err := s.get(ctx, u, &entries); err != nil {
		return nil, err
	}

	var models []Model
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(e.Path, ".gguf") {
			continue
		}
		m := Model{
			Name:      strings.TrimSuffix(path.Base(e.Path), ".gguf"),
			Repo:      repoID,
			File:      e.Path,
			SizeBytes: e.Size,
			Quant:     quantFromName(e.Path),
			Origin:    OriginHub,
		}
		if e.LFS != nil {
			if e.LFS.Size > 0 {
				m.SizeBytes = e.LFS.Size
			}
			m.SHA256 = e.LFS.OID
		}
		models = append(models, m)
	}
	return models, nil
}

// quantFromName extracts a quantization tag like Q4_K_M or Q8_0 from a
// filename.
func quantFromName(name string) string {
	upper := strings.ToUpper(name)
	for _, tag := range []string{
		"Q2_K", "Q3_K_S", "Q3_K_M", "Q3_K_L", "Q4_0", "Q4_1", "Q4_K_S", "Q4_K_M",
		"Q5_0", "Q5_1", "Q5_K_S", "Q5_K_M", "Q6_K", "Q8_0", "F16", "BF16", "F32",
	} {
		if strings.Contains(upper, tag) {
			return tag
		}
	}
	return ""
}
