package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Health is the state of an inference server's /health endpoint.
type Health struct {
	Ready  bool
	Status string
}

// CheckHealth probes baseURL/health. llama-server answers 200 once the model
// is loaded and 503 while loading; both count as a reachable server.
func CheckHealth(ctx context.Context, baseURL string) (Health, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	url := strings.TrimRight(baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return Health{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("%s", friendlyError(err))
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	switch resp.StatusCode {
	case 200:
		return Health{Ready: true, Status: healthStatus(body, "ok")}, nil
	case 503:
		return Health{Ready: false, Status: healthStatus(body, "loading model")}, nil
	default:
		return Health{}, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
}

func healthStatus(body []byte, fallback string) string {
	var parsed struct {
		Status string `json:"status"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Status != "" {
			return parsed.Status
		}
		if parsed.Error.Message != "" {
			return parsed.Error.Message
		}
	}
	return fallback
}
