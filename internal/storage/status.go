// Package storage watches whether the host can hold and load a model the
// user is about to fetch. A monitor session runs one availability check
// immediately and then rechecks on an interval, publishing a Status for the
// UI to render. Switching models or stopping the monitor cancels the session;
// results from a cancelled check are discarded, never delivered late.
package storage

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Status is the outcome of the most recent availability check.
type Status struct {
	IsOk    bool   `json:"is_ok"`
	Message string `json:"message,omitempty"`
}

// DefaultInterval is the recheck period when none is configured.
const DefaultInterval = 10 * time.Second

const (
	storageCheckFailed = "Failed to check storage"
	memoryCheckFailed  = "Failed to check memory"
)

func lowStorageMessage(need, free uint64) string {
	return fmt.Sprintf("Storage low! Model %s > %s free",
		humanize.Bytes(need), humanize.Bytes(free))
}

func lowMemoryMessage(need, avail uint64) string {
	return fmt.Sprintf("Memory low! Model needs %s, %s available",
		humanize.Bytes(need), humanize.Bytes(avail))
}

// Options configures a monitor session. The zero value checks immediately
// and then every DefaultInterval.
type Options struct {
	// Once disables periodic rechecks; the session runs a single check and
	// terminates.
	Once bool
	// Interval is the recheck period. Zero or negative means
	// DefaultInterval.
	Interval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}
