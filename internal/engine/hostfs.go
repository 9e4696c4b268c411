package engine

import (
	"fmt"
	"os"
	"syscall"
)

// rootFSUsage reports used/total bytes for the filesystem holding path.
// Only meaningful when the engine's storage root is locally visible (a remote
// DOCKER_HOST will not have it); callers treat failure as "no data".
func rootFSUsage(path string) (used, total uint64, err error) {
	if path == "" {
		return 0, 0, fmt.Errorf("no storage root path")
	}
	if _, err := os.Stat(path); err != nil {
		return 0, 0, err
	}
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total = stat.Blocks * uint64(stat.Bsize)
	available := stat.Bavail * uint64(stat.Bsize)
	return total - available, total, nil
}
