//go:build !linux && !darwin

package device

import (
	"fmt"
	"runtime"
)

func memStats() (memInfo, error) {
	return memInfo{}, fmt.Errorf("memory stats not supported on %s", runtime.GOOS)
}
