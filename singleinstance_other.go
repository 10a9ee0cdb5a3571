//go:build !windows

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

func instanceLockPath(dir string) string {
	return filepath.Join(dir, "docmost-desktop.lock")
}

// acquireInstanceLock records this process as the running shell.
// Returns a cleanup function to call on exit.
func acquireInstanceLock(dir string) (func(), error) {
	if instanceRunning(dir) {
		return nil, errAlreadyRunning
	}

	lockPath := instanceLockPath(dir)
	if err := os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return func() {
		os.Remove(lockPath)
	}, nil
}

// instanceRunning reports whether another shell process holds the lock in dir.
func instanceRunning(dir string) bool {
	data, err := os.ReadFile(instanceLockPath(dir))
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid == os.Getpid() {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; check if process is alive
	return process.Signal(syscall.Signal(0)) == nil
}
