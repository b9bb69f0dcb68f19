package device

import (
	"context"
	"math"
	"runtime"
	"testing"

	"github.com/jeanpaul/alacrity/internal/model"
)

func TestDiskUsage(t *testing.T) {
	u, err := DiskUsage(t.TempDir())
	if err != nil {
		t.Fatalf("DiskUsage: %v", err)
	}
	if u.Total == 0 {
		t.Error("expected non-zero total disk space")
	}
	if u.Free > u.Total {
		t.Errorf("free %d exceeds total %d", u.Free, u.Total)
	}
}

func TestSnapshot(t *testing.T) {
	info := Snapshot(t.TempDir())
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %q, want %q", info.OS, runtime.GOOS)
	}
	if info.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", info.Arch, runtime.GOARCH)
	}
	if info.CPUs < 1 {
		t.Errorf("CPUs = %d, want >= 1", info.CPUs)
	}
	if info.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
	if info.FreeDisk == 0 {
		t.Error("FreeDisk is zero")
	}
}

func TestLabel(t *testing.T) {
	info := Info{OS: "linux", Arch: "arm64", CPUs: 8, TotalRAM: 16 << 30}
	got := info.Label()
	want := "linux/arm64 8c 16.0 GB"
	if got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestCheckerSpace(t *testing.T) {
	c := NewChecker(t.TempDir(), 0, 1.4)

	ok, err := c.HasEnoughSpace(context.Background(), model.Model{SizeBytes: 0})
	if err != nil {
		t.Fatalf("HasEnoughSpace: %v", err)
	}
	if !ok {
		t.Error("zero-byte model should always fit")
	}

	ok, err = c.HasEnoughSpace(context.Background(), model.Model{SizeBytes: math.MaxInt64})
	if err != nil {
		t.Fatalf("HasEnoughSpace: %v", err)
	}
	if ok {
		t.Error("8 EiB model should not fit")
	}
}

func TestCheckerDefaults(t *testing.T) {
	c := NewChecker("/tmp", 1<<30, 0)
	if c.Overhead != 1.4 {
		t.Errorf("Overhead = %v, want 1.4", c.Overhead)
	}
	need := c.RequiredMemory(model.Model{SizeBytes: 1000})
	if need != 1400 {
		t.Errorf("RequiredMemory = %d, want 1400", need)
	}
}
