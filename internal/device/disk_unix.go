//go:build linux || darwin

package device

import (
	"fmt"
	"syscall"
)

func diskUsage(path string) (Usage, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return Usage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	return Usage{
		Free:  stat.Bavail * uint64(stat.Bsize),
		Total: stat.Blocks * uint64(stat.Bsize),
	}, nil
}
