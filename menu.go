package main

// Tray and application menu actions
const (
	ActionShow     = "show"
	ActionSettings = "settings"
	ActionQuit     = "quit"

	ActionOpenSettings     = "open-settings"
	ActionReload           = "reload"
	ActionQuitApp          = "quit-app"
	ActionZoomReset        = "zoom-reset"
	ActionZoomIn           = "zoom-in"
	ActionZoomOut          = "zoom-out"
	ActionToggleFullscreen = "toggle-fullscreen"
)

const trayTitle = "Docmost"

func trayMenu() []TrayItem {
	return []TrayItem{
		{Label: "Show Docmost", Tooltip: "Show the Docmost window", Action: ActionShow},
		{Label: "Settings...", Tooltip: "Change the Docmost server", Action: ActionSettings},
		{Divider: true},
		{Label: "Quit", Tooltip: "Quit Docmost Desktop", Action: ActionQuit},
	}
}

func applicationMenu() []MenuItem {
	return []MenuItem{
		{
			Label: AppName,
			Submenu: []MenuItem{
				{Role: RoleAbout},
				{Separator: true},
				{Label: "Settings...", Action: ActionOpenSettings, Key: ","},
				{Separator: true},
				{Role: RoleHide},
				{Role: RoleHideOthers},
				{Role: RoleShowAll},
				{Separator: true},
				{Label: "Quit " + AppName, Action: ActionQuitApp, Key: "q"},
			},
		},
		{Label: "Edit", Role: RoleEditMenu},
		{
			Label: "View",
			Submenu: []MenuItem{
				{Label: "Reload", Action: ActionReload, Key: "r"},
				{Separator: true},
				{Label: "Actual Size", Action: ActionZoomReset, Key: "0"},
				{Label: "Zoom In", Action: ActionZoomIn, Key: "="},
				{Label: "Zoom Out", Action: ActionZoomOut, Key: "-"},
				{Separator: true},
				{Label: "Toggle Full Screen", Action: ActionToggleFullscreen},
			},
		},
		{Label: "Window", Role: RoleWindowMenu},
	}
}
