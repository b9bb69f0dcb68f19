package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseEngineError extracts a readable message from an inference server's
// error response.
func parseEngineError(statusCode int, body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		msg := errResp.Error.Message
		if msg == "" {
			msg = errResp.Message
		}
		if msg != "" {
			return msg
		}
	}

	switch statusCode {
	case 401:
		return "authentication failed (was the server started with --api-key?)"
	case 404:
		return "endpoint not found (is this a llama.cpp-compatible server?)"
	case 429:
		return "server busy, too many concurrent requests"
	case 503:
		return "model still loading, try again shortly"
	case 500, 502:
		return "inference server error"
	}

	s := string(body)
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, s)
}

// friendlyError converts common network errors to messages that point at
// the usual cause when running against a local server.
func friendlyError(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "connection refused") {
		return "connection refused (is the engine running?)"
	}
	if strings.Contains(msg, "no such host") {
		return "host not found (check engine.base_url)"
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") {
		return "connection timed out (the model may still be loading)"
	}
	if strings.Contains(msg, "EOF") {
		return "connection closed unexpectedly"
	}
	if strings.Contains(msg, "reset by peer") {
		return "connection reset by server"
	}
	return msg
}
