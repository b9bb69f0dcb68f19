package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckHealthReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	h, err := CheckHealth(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Ready || h.Status != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestCheckHealthLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"code":503,"message":"Loading model"}}`))
	}))
	defer srv.Close()

	h, err := CheckHealth(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if h.Ready {
		t.Error("Ready = true while loading")
	}
	if h.Status != "Loading model" {
		t.Errorf("Status = %q", h.Status)
	}
}

func TestCheckHealthUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := CheckHealth(context.Background(), srv.URL); err == nil {
		t.Error("expected error for 404")
	}
}

func TestCheckHealthUnreachable(t *testing.T) {
	if _, err := CheckHealth(context.Background(), "http://127.0.0.1:1"); err == nil {
		t.Error("expected error for unreachable server")
	}
}
