//go:build windows

package main

import (
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	pSendMessageW             = user32dll.NewProc("SendMessageW")
	pLoadImageW               = user32dll.NewProc("LoadImageW")
	pDestroyIcon              = user32dll.NewProc("DestroyIcon")
	pIsWindow                 = user32dll.NewProc("IsWindow")
	pGetWindowThreadProcessId = user32dll.NewProc("GetWindowThreadProcessId")
)

const (
	wmSetIcon      = 0x0080
	iconBig        = 1
	iconSmall      = 0
	imageIcon      = 1
	lrLoadFromFile = 0x0010
)

var (
	currentBigIcon   uintptr
	currentSmallIcon uintptr
	cachedHwnd       uintptr // cached shell window handle
)

// findShellHwnd locates our window by title, falling back to the other
// titles it can carry.
func findShellHwnd(title string) uintptr {
	if cachedHwnd != 0 {
		if ret, _, _ := pIsWindow.Call(cachedHwnd); ret != 0 {
			return cachedHwnd
		}
		cachedHwnd = 0
	}
	for _, t := range append([]string{title}, windowTitles...) {
		p, _ := windows.UTF16PtrFromString(t)
		hwnd, _, _ := pFindWindowW.Call(0, uintptr(unsafe.Pointer(p)))
		if hwnd == 0 {
			continue
		}
		var pid uint32
		pGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		if pid == uint32(os.Getpid()) {
			cachedHwnd = hwnd
			return hwnd
		}
	}
	return 0
}

// setWindowIcon puts the generated icon on the title bar and taskbar. The
// build has no resource icon, so Windows would show a blank one otherwise.
func setWindowIcon(title string) {
	if currentBigIcon != 0 {
		return
	}
	hwnd := findShellHwnd(title)
	if hwnd == 0 {
		return
	}
	setIconFromData(hwnd, trayIconICO)
}

// setIconFromData loads an ICO from byte data and sets it on the window.
func setIconFromData(hwnd uintptr, icoData []byte) {
	tmpFile := filepath.Join(os.TempDir(), "docmost_desktop_icon.ico")
	if err := os.WriteFile(tmpFile, icoData, 0644); err != nil {
		return
	}
	defer os.Remove(tmpFile)

	tmpPath, _ := windows.UTF16PtrFromString(tmpFile)

	hBig, _, _ := pLoadImageW.Call(0, uintptr(unsafe.Pointer(tmpPath)), imageIcon, 32, 32, lrLoadFromFile)
	if hBig != 0 {
		if currentBigIcon != 0 {
			pDestroyIcon.Call(currentBigIcon)
		}
		pSendMessageW.Call(hwnd, wmSetIcon, iconBig, hBig)
		currentBigIcon = hBig
	}

	hSmall, _, _ := pLoadImageW.Call(0, uintptr(unsafe.Pointer(tmpPath)), imageIcon, 16, 16, lrLoadFromFile)
	if hSmall != 0 {
		if currentSmallIcon != 0 {
			pDestroyIcon.Call(currentSmallIcon)
		}
		pSendMessageW.Call(hwnd, wmSetIcon, iconSmall, hSmall)
		currentSmallIcon = hSmall
	}
}
