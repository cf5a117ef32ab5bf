//go:build !linux

package cmd

import "fmt"

func countInstructions(f func() error) (uint64, error) {
	return 0, fmt.Errorf("performance counters are only available on linux")
}
