package leaderboard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	readability "github.com/go-shiori/go-readability"
)

const hubBase = "https://huggingface.co"

// Card is a model card pulled from the Hub, reduced to readable Markdown.
type Card struct {
	Repo     string
	Title    string
	Markdown string
}

// CardFetcher downloads model cards. Readability strips the Hub's page
// chrome so only the card body survives.
type CardFetcher struct {
	base   string
	client *http.Client
}

func NewCardFetcher() *CardFetcher {
	return &CardFetcher{
		base:   hubBase,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads the card for a repo like "bartowski/Llama-3.2-1B-Instruct-GGUF".
func (f *CardFetcher) Fetch(ctx context.Context, repo string) (Card, error) {
	pageURL := f.base + "/" + strings.Trim(repo, "/")

	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return Card{}, err
	}
	req.Header.Set("User-Agent", "alacrity (+https://github.com/jeanpaul/alacrity)")

	resp, err := f.client.Do(req)
	if err != nil {
		return Card{}, fmt.Errorf("fetch model card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Card{}, fmt.Errorf("no model card for %q", repo)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Card{}, fmt.Errorf("fetch model card: HTTP %d", resp.StatusCode)
	}

	parsed, _ := url.Parse(pageURL)
	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return Card{}, fmt.Errorf("extract card content: %w", err)
	}

	title := article.Title
	if title == "" {
		title = repo
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(article.Content)
	if err != nil {
		// Plain text still beats nothing.
		return Card{Repo: repo, Title: title, Markdown: article.TextContent}, nil
	}

	return Card{Repo: repo, Title: title, Markdown: markdown}, nil
}
