package main

// AppVersion is the released version.
const AppVersion = "0.1.0"

const (
	AppName       = "Docmost Desktop"
	AppIdentifier = "com.docmost.desktop"
)

// WindowBounds is the persisted frame of the main window.
type WindowBounds struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// AppSettings holds all persistent user settings.
type AppSettings struct {
	InstanceURL  string       `json:"instanceUrl" yaml:"instanceUrl"`
	WindowBounds WindowBounds `json:"windowBounds" yaml:"windowBounds"`
	CloseToTray  bool         `json:"closeToTray" yaml:"closeToTray"`
}

// SettingsPatch is a partial update of AppSettings. Nil fields are left untouched.
type SettingsPatch struct {
	InstanceURL  *string
	WindowBounds *WindowBounds
	CloseToTray  *bool
}

func (p SettingsPatch) apply(s *AppSettings) {
	if p.InstanceURL != nil {
		s.InstanceURL = *p.InstanceURL
	}
	if p.WindowBounds != nil {
		s.WindowBounds = *p.WindowBounds
	}
	if p.CloseToTray != nil {
		s.CloseToTray = *p.CloseToTray
	}
}
