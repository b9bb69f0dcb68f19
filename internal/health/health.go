// Package health implements the doctor checks: engine reachability, binary
// presence, models directory, disk and memory headroom. Each check stands
// alone so one failure never hides the others.
package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/config"
	"github.com/jeanpaul/alacrity/internal/device"
	"github.com/jeanpaul/alacrity/internal/engine"
	"github.com/jeanpaul/alacrity/internal/model"
)

// Check is the outcome of one diagnostic.
type Check struct {
	Name    string
	OK      bool
	Detail  string
	Err     string
	Latency time.Duration
}

// RunAll executes every diagnostic against cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Check {
	return []Check{
		Engine(ctx, cfg.Engine.BaseURL),
		Binary(cfg.Engine.Binary),
		ModelsDir(ctx, cfg.ModelsDir),
		Disk(cfg.ModelsDir, cfg.Storage.ReserveBytes),
		Memory(),
	}
}

// Engine probes the inference server's health endpoint.
func Engine(ctx context.Context, baseURL string) Check {
	c := Check{Name: "engine", Detail: baseURL}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	h, err := engine.CheckHealth(ctx, baseURL)
	c.Latency = time.Since(start)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	c.OK = true
	if h.Ready {
		c.Detail = fmt.Sprintf("%s answering (%s)", baseURL, h.Status)
	} else {
		c.Detail = fmt.Sprintf("%s up, %s", baseURL, h.Status)
	}
	return c
}

// Binary looks for the configured llama-server binary on PATH.
func Binary(binary string) Check {
	c := Check{Name: "binary"}
	if binary == "" {
		binary = "llama-server"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		c.Err = fmt.Sprintf("%s not found on PATH", binary)
		c.Detail = "needed only for `alacrity serve`"
		return c
	}
	c.OK = true
	c.Detail = path
	return c
}

// ModelsDir verifies the models directory exists, is writable, and counts the
// GGUF files in it.
func ModelsDir(ctx context.Context, dir string) Check {
	c := Check{Name: "models dir", Detail: dir}
	store, err := model.OpenStore(dir)
	if err != nil {
		c.Err = err.Error()
		return c
	}

	probe := filepath.Join(dir, ".alacrity-write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		c.Err = fmt.Sprintf("not writable: %v", err)
		return c
	}
	os.Remove(probe)

	models, err := store.List(ctx)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	c.OK = true
	c.Detail = fmt.Sprintf("%s (%d models)", dir, len(models))
	return c
}

// Disk reports free space on the models filesystem against the configured
// reserve.
func Disk(dir string, reserve int64) Check {
	c := Check{Name: "disk"}
	if _, err := os.Stat(dir); err != nil {
		dir = "."
	}
	usage, err := device.DiskUsage(dir)
	if err != nil {
		c.Err = err.Error()
		return c
	}
	c.Detail = fmt.Sprintf("%s free of %s", humanize.Bytes(usage.Free), humanize.Bytes(usage.Total))
	if reserve > 0 && usage.Free < uint64(reserve) {
		c.Err = fmt.Sprintf("below the %s reserve", humanize.Bytes(uint64(reserve)))
		return c
	}
	c.OK = true
	return c
}

// Memory reports installed and available RAM.
func Memory() Check {
	c := Check{Name: "memory"}
	total, err := device.TotalMemory()
	if err != nil {
		c.Err = err.Error()
		return c
	}
	avail, err := device.AvailableMemory()
	if err != nil {
		c.Err = err.Error()
		return c
	}
	c.OK = true
	c.Detail = fmt.Sprintf("%s available of %s", humanize.Bytes(avail), humanize.Bytes(total))
	return c
}
