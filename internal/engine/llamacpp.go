package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// LlamaCpp drives llama-server's native API. Raw prompts go to /completion,
// which reports per-token timings; chat requests go to the server's
// OpenAI-compatible endpoint so the model's own template is applied.
type LlamaCpp struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewLlamaCpp(baseURL, apiKey string) *LlamaCpp {
	return &LlamaCpp{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (l *LlamaCpp) Name() string { return "llamacpp" }

func (l *LlamaCpp) Complete(ctx context.Context, req Request) (<-chan Chunk, error) {
	if req.Prompt == "" {
		oai := &OpenAICompat{
			name:    l.Name(),
			baseURL: l.baseURL + "/v1",
			apiKey:  l.apiKey,
			client:  l.client,
		}
		return oai.Complete(ctx, req)
	}

	body := map[string]any{
		"prompt":       req.Prompt,
		"stream":       true,
		"cache_prompt": false,
	}
	if req.MaxTokens > 0 {
		body["n_predict"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", l.baseURL+"/completion", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if l.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+l.apiKey)
	}

	resp, err := l.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("engine %s: %s", l.Name(), friendlyError(err))
	}
	if resp.StatusCode != 200 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("engine %s: %s", l.Name(), parseEngineError(resp.StatusCode, b))
	}

	ch := make(chan Chunk, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var chunk llamaStreamChunk
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				continue
			}
			if chunk.Content != "" {
				ch <- Chunk{Delta: chunk.Content}
			}
			if chunk.Stop {
				ch <- Chunk{Done: true, Timings: chunk.Timings}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ch <- Chunk{Error: err, Done: true}
			return
		}
		ch <- Chunk{Done: true}
	}()
	return ch, nil
}

type llamaStreamChunk struct {
	Content string   `json:"content"`
	Stop    bool     `json:"stop"`
	Timings *Timings `json:"timings"`
}
