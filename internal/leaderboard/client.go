// Package leaderboard submits benchmark results to the shared rankings
// service and reads them back.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/logging"
)

// Entry is one row of the public rankings.
type Entry struct {
	Rank      int       `json:"rank"`
	Model     string    `json:"model"`
	Quant     string    `json:"quant,omitempty"`
	Preset    string    `json:"preset"`
	PromptTPS float64   `json:"prompt_tps"`
	GenTPS    float64   `json:"gen_tps"`
	Label     string    `json:"label,omitempty"`
	Arch      string    `json:"arch,omitempty"`
	RanAt     time.Time `json:"ran_at,omitempty"`
}

// Receipt is the server's acknowledgement of a submission.
type Receipt struct {
	ID   string `json:"id"`
	Rank int    `json:"rank"`
	URL  string `json:"url,omitempty"`
}

// Query filters a rankings request. Zero fields are omitted.
type Query struct {
	Model  string
	Preset string
	Arch   string
	Limit  int
}

type Client struct {
	base   string
	client *retryablehttp.Client
	log    zerolog.Logger
}

// NewClient returns a Client for the service rooted at base, for example
// https://bench.alacrity.dev/api/v1.
func NewClient(base string) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	client.HTTPClient.Timeout = 30 * time.Second
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: client,
		log:    logging.With("leaderboard"),
	}
}

// Submit uploads a result. The payload is validated locally first so a
// malformed result fails before it leaves the machine.
func (c *Client) Submit(ctx context.Context, r bench.Result) (Receipt, error) {
	if err := r.Validate(); err != nil {
		return Receipt{}, fmt.Errorf("refusing to submit: %w", err)
	}
	body, err := json.Marshal(r)
	if err != nil {
		return Receipt{}, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.base+"/submissions", body)
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Receipt{}, serverError("submission rejected", resp)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt: %w", err)
	}
	c.log.Info().Str("id", receipt.ID).Int("rank", receipt.Rank).Msg("result submitted")
	return receipt, nil
}

// Rankings fetches leaderboard rows matching q, best gen_tps first.
func (c *Client) Rankings(ctx context.Context, q Query) ([]Entry, error) {
	vals := url.Values{}
	if q.Model != "" {
		vals.Set("model", q.Model)
	}
	if q.Preset != "" {
		vals.Set("preset", q.Preset)
	}
	if q.Arch != "" {
		vals.Set("arch", q.Arch)
	}
	if q.Limit > 0 {
		vals.Set("limit", strconv.Itoa(q.Limit))
	}
	endpoint := c.base + "/rankings"
	if len(vals) > 0 {
		endpoint += "?" + vals.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rankings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, serverError("rankings request failed", resp)
	}

	var payload struct {
		Entries []Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rankings: %w", err)
	}
	return payload.Entries, nil
}

// serverError folds a non-2xx response into a readable error, keeping a
// short slice of the body in case the server explained itself.
func serverError(what string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))

	var apiErr struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	if msg == "" {
		return fmt.Errorf("%s: HTTP %d", what, resp.StatusCode)
	}
	return fmt.Errorf("%s: HTTP %d: %s", what, resp.StatusCode, msg)
}
