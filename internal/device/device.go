// Package device probes the host for the resources that gate model downloads
// and loads: free disk under the models directory, available RAM, and the
// hardware snapshot attached to benchmark results.
package device

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/jeanpaul/alacrity/internal/model"
)

// Usage describes the filesystem holding a path.
type Usage struct {
	Free  uint64 `json:"free"`
	Total uint64 `json:"total"`
}

// DiskUsage returns free/total bytes for the filesystem containing path.
func DiskUsage(path string) (Usage, error) {
	return diskUsage(path)
}

// FreeDiskSpace returns the bytes available to unprivileged writes on the
// filesystem containing path.
func FreeDiskSpace(path string) (uint64, error) {
	u, err := diskUsage(path)
	if err != nil {
		return 0, err
	}
	return u.Free, nil
}

// TotalMemory returns installed RAM in bytes.
func TotalMemory() (uint64, error) {
	m, err := memStats()
	if err != nil {
		return 0, err
	}
	return m.Total, nil
}

// AvailableMemory returns RAM currently available for new allocations.
func AvailableMemory() (uint64, error) {
	m, err := memStats()
	if err != nil {
		return 0, err
	}
	return m.Available, nil
}

type memInfo struct {
	Total     uint64
	Available uint64
}

// Info is the device snapshot recorded with benchmark results.
type Info struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Hostname  string `json:"hostname"`
	CPUs      int    `json:"cpus"`
	GoVersion string `json:"go_version"`
	TotalRAM  uint64 `json:"total_ram"`
	FreeDisk  uint64 `json:"free_disk"`
}

// Snapshot collects a best-effort Info. Probe failures leave the field zero
// rather than failing the caller; a benchmark without a RAM figure is still a
// benchmark.
func Snapshot(dir string) Info {
	info := Info{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		CPUs:      runtime.NumCPU(),
		GoVersion: runtime.Version(),
	}
	info.Hostname, _ = os.Hostname()
	if total, err := TotalMemory(); err == nil {
		info.TotalRAM = total
	}
	if free, err := FreeDiskSpace(dir); err == nil {
		info.FreeDisk = free
	}
	return info
}

// Label is the short device string used in leaderboard submissions,
// e.g. "linux/arm64 8c 16.0 GB".
func (i Info) Label() string {
	gb := float64(i.TotalRAM) / (1024 * 1024 * 1024)
	return fmt.Sprintf("%s/%s %dc %.1f GB", i.OS, i.Arch, i.CPUs, gb)
}

// Checker bundles the probes into the oracle shape the storage and memory
// monitors consume.
type Checker struct {
	Dir      string  // models directory; its filesystem is the one probed
	Reserve  int64   // headroom to keep free beyond the model itself
	Overhead float64 // multiplier from file size to load footprint
}

// NewChecker builds a Checker with the configured models dir and reserve.
func NewChecker(dir string, reserve int64, overhead float64) *Checker {
	if overhead < 1 {
		overhead = 1.4
	}
	return &Checker{Dir: dir, Reserve: reserve, Overhead: overhead}
}

// HasEnoughSpace reports whether the models filesystem can hold m plus the
// configured reserve.
func (c *Checker) HasEnoughSpace(_ context.Context, m model.Model) (bool, error) {
	free, err := FreeDiskSpace(c.Dir)
	if err != nil {
		return false, err
	}
	need := uint64(m.SizeBytes)
	if c.Reserve > 0 {
		need += uint64(c.Reserve)
	}
	return free >= need, nil
}

// FreeDiskSpace reports available bytes on the models filesystem.
func (c *Checker) FreeDiskSpace(_ context.Context) (uint64, error) {
	return FreeDiskSpace(c.Dir)
}

// AvailableMemory reports RAM available for a model load.
func (c *Checker) AvailableMemory(_ context.Context) (uint64, error) {
	return AvailableMemory()
}

// RequiredMemory estimates the load footprint of m.
func (c *Checker) RequiredMemory(m model.Model) uint64 {
	return uint64(float64(m.SizeBytes) * c.Overhead)
}
