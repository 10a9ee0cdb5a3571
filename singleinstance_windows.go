//go:build windows

package main

import (
	"syscall"
	"unsafe"
)

var (
	kernel32        = syscall.NewLazyDLL("kernel32.dll")
	procCreateMutex = kernel32.NewProc("CreateMutexW")
)

const instanceMutexName = "Local\\DocmostDesktop_SingleInstance"

// acquireInstanceLock creates the named instance mutex.
// Returns a cleanup function to call on exit.
func acquireInstanceLock(dir string) (func(), error) {
	handle, err := createInstanceMutex()
	if err != nil {
		return nil, err
	}
	return func() {
		syscall.CloseHandle(handle)
	}, nil
}

// instanceRunning reports whether another shell process holds the mutex.
// The mutex is per user session, so dir is not consulted.
func instanceRunning(dir string) bool {
	handle, err := createInstanceMutex()
	if err != nil {
		return err == errAlreadyRunning
	}
	syscall.CloseHandle(handle)
	return false
}

func createInstanceMutex() (syscall.Handle, error) {
	mutexName, _ := syscall.UTF16PtrFromString(instanceMutexName)

	handle, _, err := procCreateMutex.Call(0, 0, uintptr(unsafe.Pointer(mutexName)))
	if handle == 0 {
		return 0, err
	}
	if err == syscall.ERROR_ALREADY_EXISTS {
		syscall.CloseHandle(syscall.Handle(handle))
		return 0, errAlreadyRunning
	}
	return syscall.Handle(handle), nil
}
