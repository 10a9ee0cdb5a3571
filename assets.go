package main

import (
	"embed"
	"io/fs"
)

//go:embed all:frontend/settings
var settingsAssets embed.FS

// settingsFS returns the settings page rooted at its index.html.
func settingsFS() fs.FS {
	sub, err := fs.Sub(settingsAssets, "frontend/settings")
	if err != nil {
		panic("settings assets: " + err.Error())
	}
	return sub
}
