//go:build linux

package device

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// memStats parses /proc/meminfo. Values there are in KB.
func memStats() (memInfo, error) {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return memInfo{}, fmt.Errorf("read /proc/meminfo: %w", err)
	}
	info, err := parseMeminfo(string(data))
	if err != nil {
		return memInfo{}, err
	}
	return info, nil
}

func parseMeminfo(data string) (memInfo, error) {
	var info memInfo
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSuffix(fields[0], ":") {
		case "MemTotal":
			info.Total = value * 1024
		case "MemAvailable":
			info.Available = value * 1024
		}
	}
	if info.Total == 0 {
		return memInfo{}, fmt.Errorf("meminfo: MemTotal not found")
	}
	return info, nil
}
