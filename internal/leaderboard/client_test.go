package leaderboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jeanpaul/alacrity/internal/bench"
	"github.com/jeanpaul/alacrity/internal/device"
)

func validResult() bench.Result {
	return bench.Result{
		ID:          "3f6a1c2e-0b7d-4f3a-9c31-64b1a0f5e8d2",
		Model:       "llama-3.2-1b",
		Quant:       "Q8_0",
		Preset:      "tg128",
		PromptTPS:   512.4,
		GenTPS:      31.8,
		TTFBMS:      184.2,
		Repetitions: 3,
		RanAt:       time.Date(2026, 8, 10, 9, 30, 0, 0, time.UTC),
		Label:       "linux/arm64 8c",
		Device:      device.Info{OS: "linux", Arch: "arm64", CPUs: 8},
	}
}

func TestSubmit(t *testing.T) {
	var gotBody bench.Result
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/submissions" {
			t.Errorf("path = %s, want /submissions", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(Receipt{ID: "sub-991", Rank: 12, URL: "https://bench.alacrity.dev/r/sub-991"})
	}))
	defer srv.Close()

	receipt, err := NewClient(srv.URL).Submit(context.Background(), validResult())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if receipt.ID != "sub-991" || receipt.Rank != 12 {
		t.Errorf("receipt = %+v", receipt)
	}
	if gotBody.Model != "llama-3.2-1b" || gotBody.GenTPS != 31.8 {
		t.Errorf("server saw %+v", gotBody)
	}
}

func TestSubmitValidatesBeforeSending(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	r := validResult()
	r.Model = ""
	_, err := NewClient(srv.URL).Submit(context.Background(), r)
	if err == nil {
		t.Fatal("invalid result should not submit")
	}
	if !strings.Contains(err.Error(), "refusing to submit") {
		t.Errorf("err = %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestSubmitServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "duplicate submission"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Submit(context.Background(), validResult())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "422") || !strings.Contains(err.Error(), "duplicate submission") {
		t.Errorf("err = %v, want status and server message", err)
	}
}

func TestRankings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rankings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("model") != "llama-3.2-1b" || q.Get("preset") != "tg128" || q.Get("limit") != "10" {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"entries": []Entry{
				{Rank: 1, Model: "llama-3.2-1b", Quant: "Q8_0", Preset: "tg128", GenTPS: 88.1, Arch: "arm64"},
				{Rank: 2, Model: "llama-3.2-1b", Quant: "Q8_0", Preset: "tg128", GenTPS: 54.0, Arch: "amd64"},
			},
		})
	}))
	defer srv.Close()

	entries, err := NewClient(srv.URL).Rankings(context.Background(), Query{
		Model:  "llama-3.2-1b",
		Preset: "tg128",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Rankings: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].GenTPS != 88.1 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
}

func TestRankingsNoFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("query should be empty, got %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"entries": []Entry{}})
	}))
	defer srv.Close()

	entries, err := NewClient(srv.URL).Rankings(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Rankings: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestRankingsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad arch filter", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Rankings(context.Background(), Query{Arch: "vax"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "bad arch filter") {
		t.Errorf("err = %v", err)
	}
}
