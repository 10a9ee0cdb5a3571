package main

// WindowKind identifies one of the two windows the shell manages.
type WindowKind int

const (
	SettingsWindow WindowKind = iota
	MainWindow
)

func (k WindowKind) String() string {
	switch k {
	case SettingsWindow:
		return "settings"
	case MainWindow:
		return "main"
	default:
		return "unknown"
	}
}

// WindowOptions describes a window to open. An empty URL loads the embedded
// settings page.
type WindowOptions struct {
	Kind      WindowKind
	Title     string
	URL       string
	Bounds    WindowBounds
	Partition string
	// PageScript runs in every page loaded into the window.
	PageScript string
}

// Window is a handle to a host window. Methods on a closed window are no-ops.
type Window interface {
	Kind() WindowKind
	Focus()
	Close()
	LoadURL(url string)
	SetZoom(factor float64)
	ToggleFullscreen()
}

// TrayItem is a tray menu entry. Divider entries carry no action.
type TrayItem struct {
	Label   string
	Tooltip string
	Action  string
	Divider bool
}

// MenuRole selects a platform-provided menu or menu item.
type MenuRole string

const (
	RoleAbout      MenuRole = "about"
	RoleHide       MenuRole = "hide"
	RoleHideOthers MenuRole = "hideOthers"
	RoleShowAll    MenuRole = "showAll"
	RoleEditMenu   MenuRole = "editMenu"
	RoleWindowMenu MenuRole = "windowMenu"
)

// MenuItem is an application menu entry. Top-level items are submenus.
// Key is combined with Cmd on macOS and Ctrl elsewhere.
type MenuItem struct {
	Label     string
	Role      MenuRole
	Action    string
	Key       string
	Separator bool
	Submenu   []MenuItem
}

// Host is the embedding runtime the shell configures: windows, tray, menu,
// notifications and event dispatch.
type Host interface {
	OpenWindow(opts WindowOptions) (Window, error)
	SetTray(title string, items []TrayItem) error
	SetApplicationMenu(items []MenuItem) error
	On(kind EventKind, h EventHandler)
	Notify(title, body string) error
	Quit()
}
