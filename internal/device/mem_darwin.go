//go:build darwin

package device

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// memStats shells out to sysctl and vm_stat. macOS has no /proc, and the
// Mach host_statistics call is not reachable without cgo.
func memStats() (memInfo, error) {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return memInfo{}, fmt.Errorf("sysctl hw.memsize: %w", err)
	}
	total, err := strconv.ParseUint(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return memInfo{}, fmt.Errorf("parse hw.memsize: %w", err)
	}

	vmOut, err := exec.Command("vm_stat").Output()
	if err != nil {
		return memInfo{}, fmt.Errorf("vm_stat: %w", err)
	}
	available, err := parseVMStat(string(vmOut))
	if err != nil {
		return memInfo{}, err
	}
	return memInfo{Total: total, Available: available}, nil
}

// parseVMStat counts free plus inactive pages as available. Inactive pages
// are reclaimed on demand, so excluding them badly understates headroom.
func parseVMStat(out string) (uint64, error) {
	pageSize := uint64(4096)
	var free, inactive uint64
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "Mach Virtual Memory Statistics"):
			if i := strings.Index(line, "page size of "); i >= 0 {
				rest := line[i+len("page size of "):]
				if j := strings.IndexByte(rest, ' '); j > 0 {
					if ps, err := strconv.ParseUint(rest[:j], 10, 64); err == nil {
						pageSize = ps
					}
				}
			}
		case strings.HasPrefix(line, "Pages free:"):
			free = parsePageCount(line)
		case strings.HasPrefix(line, "Pages inactive:"):
			inactive = parsePageCount(line)
		}
	}
	if free == 0 && inactive == 0 {
		return 0, fmt.Errorf("vm_stat: no page counts found")
	}
	return (free + inactive) * pageSize, nil
}

func parsePageCount(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0
	}
	raw := strings.TrimSuffix(fields[len(fields)-1], ".")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
