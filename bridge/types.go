package bridge

import (
	"encoding/json"
	"time"
)

// MaxRequestTime bounds a request round trip. A pending call fails after it.
const MaxRequestTime = 10 * time.Second

// Request methods served by the shell.
const (
	MethodSaveSettings = "saveSettings"
	MethodGetSettings  = "getSettings"
)

// Messages pushed by the shell to connected pages.
const (
	MessageReady         = "ready"         // sent once per connection, before anything else
	MessageSettingsSaved = "settingsSaved" // payload: SettingsSavedMessage
)

// Frame types
const (
	FrameRequest  = "request"
	FrameResponse = "response"
	FrameMessage  = "message"
)

// Frame is the wire format for everything sent over the WebSocket.
type Frame struct {
	Type    string          `json:"type"`              // "request", "response", "message"
	ID      uint64          `json:"id,omitempty"`      // request/response correlation
	Method  string          `json:"method,omitempty"`  // request method
	Params  json.RawMessage `json:"params,omitempty"`  // request params
	Result  json.RawMessage `json:"result,omitempty"`  // response result, may be null
	Error   string          `json:"error,omitempty"`   // transport-level failure
	Name    string          `json:"name,omitempty"`    // message name
	Payload json.RawMessage `json:"payload,omitempty"` // message payload
}

// SaveSettingsParams are the params of saveSettings.
type SaveSettingsParams struct {
	URL string `json:"url"`
}

// SaveSettingsResult is the response of saveSettings.
type SaveSettingsResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SettingsResult is the response of getSettings. A nil result means no
// server is configured.
type SettingsResult struct {
	URL string `json:"url"`
}

// SettingsSavedMessage is the payload of settingsSaved.
type SettingsSavedMessage struct {
	URL string `json:"url"`
}

// SettingsRouter handles bridge requests. Implemented by the shell.
type SettingsRouter interface {
	SaveSettings(url string) SaveSettingsResult
	GetSettings() *SettingsResult
}

// Endpoint tells a page where to connect.
type Endpoint struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}
