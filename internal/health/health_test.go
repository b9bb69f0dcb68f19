package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEngineReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	c := Engine(context.Background(), srv.URL)
	if !c.OK {
		t.Fatalf("check failed: %s", c.Err)
	}
	if !strings.Contains(c.Detail, "answering") {
		t.Errorf("Detail = %q", c.Detail)
	}
	if c.Latency <= 0 {
		t.Error("latency should be recorded")
	}
}

func TestEngineDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := Engine(context.Background(), srv.URL)
	if c.OK {
		t.Error("a dead server should fail the check")
	}
	if c.Err == "" {
		t.Error("failure should carry a reason")
	}
}

func TestBinaryFound(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "llama-server")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir)

	c := Binary("")
	if !c.OK || c.Detail != bin {
		t.Errorf("check = %+v, want ok at %q", c, bin)
	}
}

func TestBinaryMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	c := Binary("llama-server")
	if c.OK {
		t.Error("missing binary should fail the check")
	}
	if !strings.Contains(c.Err, "not found") {
		t.Errorf("Err = %q", c.Err)
	}
}

func TestModelsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.gguf"), []byte("GGUF"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := ModelsDir(context.Background(), dir)
	if !c.OK {
		t.Fatalf("check failed: %s", c.Err)
	}
	if !strings.Contains(c.Detail, "(1 models)") {
		t.Errorf("Detail = %q, want a model count", c.Detail)
	}
}

func TestDiskAboveReserve(t *testing.T) {
	c := Disk(t.TempDir(), 1)
	if !c.OK {
		t.Errorf("tiny reserve should pass: %+v", c)
	}
	if !strings.Contains(c.Detail, "free of") {
		t.Errorf("Detail = %q", c.Detail)
	}
}
