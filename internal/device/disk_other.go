//go:build !linux && !darwin

package device

import (
	"fmt"
	"runtime"
)

func diskUsage(path string) (Usage, error) {
	return Usage{}, fmt.Errorf("disk usage not supported on %s", runtime.GOOS)
}
