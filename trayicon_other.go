//go:build !windows

package main

// trayIcon returns the PNG icon bytes for non-Windows systray.
func trayIcon() []byte {
	return trayIconPNG
}

func subclassSystray(dblClickFn func()) {}

func isAppWindowVisible() (visible bool, minimized bool) {
	return false, false
}

// setWindowIcon is a no-op; macOS and Linux take the icon from the bundle or
// from Linux.Icon.
func setWindowIcon(title string) {}
