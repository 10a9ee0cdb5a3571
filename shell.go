package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"DocmostDesktop/bridge"
)

// ShellState is the window state of the shell.
type ShellState int

const (
	StateNoWindow ShellState = iota
	StateSettingsShown
	StateMainShown
)

func (s ShellState) String() string {
	switch s {
	case StateSettingsShown:
		return "settings-shown"
	case StateMainShown:
		return "main-shown"
	default:
		return "no-window"
	}
}

const (
	settingsSwapDelay = 100 * time.Millisecond
	invalidURLMessage = "Invalid URL format"
	saveFailedMessage = "Failed to save settings"

	zoomStep = 0.1
	zoomMin  = 0.5
	zoomMax  = 3.0

	mainSessionPartition = "persist:docmost-session"
)

// mainPageScript disables the context menu and fixes scrolling inside the
// editor's app shell. It runs once per page load.
const mainPageScript = `(function () {
	if (window.__docmostDesktop) return;
	window.__docmostDesktop = true;
	document.addEventListener('contextmenu', e => e.preventDefault());
	const style = document.createElement('style');
	style.textContent = ` + "`" + `
		html, body { height: 100% !important; overflow: hidden !important; }
		.mantine-AppShell-main {
			overflow-y: auto !important;
			-webkit-overflow-scrolling: touch !important;
			max-height: 100vh !important;
		}
		.ProseMirror { overflow-y: auto !important; }
	` + "`" + `;
	document.head.appendChild(style);
})();`

var errInvalidURL = errors.New("invalid URL format")

// NormalizeInstanceURL trims whitespace and trailing slashes and checks that
// raw is an absolute http(s) URL with a host.
func NormalizeInstanceURL(raw string) (string, error) {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" {
		return "", errInvalidURL
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", errInvalidURL, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: missing host", errInvalidURL)
	}
	return u, nil
}

// PageMessenger pushes bridge messages to the settings page.
type PageMessenger interface {
	Send(name string, payload any)
}

// Shell owns the main and settings windows, the tray and the application
// menu. Host events are serialised through mu.
type Shell struct {
	host  Host
	store *SettingsStore
	log   *slog.Logger

	swapDelay time.Duration

	mu             sync.Mutex
	pages          PageMessenger
	settings       AppSettings
	mainWindow     Window
	settingsWindow Window
	front          Window // last window opened or focused
	zoom           float64
	trayHintShown  bool
	quitting       bool
}

// NewShell creates the shell controller. Call Init to start it.
func NewShell(host Host, store *SettingsStore, log *slog.Logger) *Shell {
	return &Shell{
		host:      host,
		store:     store,
		log:       log,
		swapDelay: settingsSwapDelay,
		zoom:      1,
	}
}

// AttachPages sets where settingsSaved messages go.
func (s *Shell) AttachPages(pages PageMessenger) {
	s.mu.Lock()
	s.pages = pages
	s.mu.Unlock()
}

// Init loads settings, installs the menu and tray, registers event handlers
// and opens the initial window.
func (s *Shell) Init() error {
	s.host.On(EventWindowClosed, s.onWindowClosed)
	s.host.On(EventWindowBounds, s.onWindowBounds)
	s.host.On(EventTrayAction, s.onTrayAction)
	s.host.On(EventMenuAction, s.onMenuAction)

	if err := s.host.SetApplicationMenu(applicationMenu()); err != nil {
		return fmt.Errorf("install application menu: %w", err)
	}
	if err := s.host.SetTray(trayTitle, trayMenu()); err != nil {
		return fmt.Errorf("install tray: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = s.store.Load()
	if s.settings.InstanceURL != "" {
		s.openMainWindow()
	} else {
		s.openSettingsWindow()
	}
	s.log.Info("shell started", "configured", s.settings.InstanceURL != "", "state", s.stateLocked())
	return nil
}

// Shutdown persists pending window bounds. Events arriving afterwards are ignored.
func (s *Shell) Shutdown() {
	s.mu.Lock()
	s.quitting = true
	s.mu.Unlock()

	if err := s.store.Flush(); err != nil {
		s.log.Error("saving window bounds on shutdown failed", "error", err)
	}
	s.log.Info("shell stopped")
}

// State reports which window is in front.
func (s *Shell) State() ShellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Shell) stateLocked() ShellState {
	switch {
	case s.front == nil:
		return StateNoWindow
	case s.front == s.settingsWindow:
		return StateSettingsShown
	default:
		return StateMainShown
	}
}

// forgetLocked drops w from the front when it goes away. The other window,
// if any, is what the user sees next.
func (s *Shell) forgetLocked(w Window) {
	if s.front != w {
		return
	}
	switch {
	case s.mainWindow != nil:
		s.front = s.mainWindow
	case s.settingsWindow != nil:
		s.front = s.settingsWindow
	default:
		s.front = nil
	}
}

// SaveSettings validates and persists the server URL submitted by the
// settings page. The window swap happens shortly after the response.
func (s *Shell) SaveSettings(raw string) bridge.SaveSettingsResult {
	instanceURL, err := NormalizeInstanceURL(raw)
	if err != nil {
		s.log.Info("rejected server url", "url", raw, "error", err)
		return bridge.SaveSettingsResult{Success: false, Error: invalidURLMessage}
	}

	s.mu.Lock()
	if _, err := s.store.Save(SettingsPatch{InstanceURL: &instanceURL}); err != nil {
		s.mu.Unlock()
		s.log.Error("saving server url failed", "error", err)
		return bridge.SaveSettingsResult{Success: false, Error: saveFailedMessage}
	}
	s.settings.InstanceURL = instanceURL
	pages := s.pages
	s.mu.Unlock()

	s.log.Info("server url saved", "url", instanceURL)
	if pages != nil {
		pages.Send(bridge.MessageSettingsSaved, bridge.SettingsSavedMessage{URL: instanceURL})
	}

	time.AfterFunc(s.swapDelay, s.completeSetup)
	return bridge.SaveSettingsResult{Success: true}
}

// GetSettings returns the configured server URL, or nil.
func (s *Shell) GetSettings() *bridge.SettingsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.InstanceURL == "" {
		return nil
	}
	return &bridge.SettingsResult{URL: s.settings.InstanceURL}
}

// completeSetup closes the settings window and brings up the main window at
// the saved URL.
func (s *Shell) completeSetup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quitting {
		return
	}

	if s.settingsWindow != nil {
		w := s.settingsWindow
		s.settingsWindow = nil
		s.forgetLocked(w)
		w.Close()
	}
	if s.mainWindow != nil {
		s.mainWindow.LoadURL(s.settings.InstanceURL)
	}
	s.openMainWindow()
}

func (s *Shell) openSettingsWindow() {
	if s.settingsWindow != nil {
		s.settingsWindow.Focus()
		s.front = s.settingsWindow
		return
	}

	w, err := s.host.OpenWindow(WindowOptions{
		Kind:   SettingsWindow,
		Title:  AppName + " - Setup",
		Bounds: WindowBounds{X: 300, Y: 200, Width: 500, Height: 450},
	})
	if err != nil {
		s.log.Error("opening settings window failed", "error", err)
		return
	}
	s.settingsWindow = w
	s.front = w
}

func (s *Shell) openMainWindow() {
	if s.settings.InstanceURL == "" {
		s.openSettingsWindow()
		return
	}

	if s.mainWindow != nil {
		s.mainWindow.Focus()
		s.front = s.mainWindow
		return
	}

	w, err := s.host.OpenWindow(WindowOptions{
		Kind:       MainWindow,
		Title:      "Docmost",
		URL:        s.settings.InstanceURL,
		Bounds:     s.settings.WindowBounds,
		Partition:  mainSessionPartition,
		PageScript: mainPageScript,
	})
	if err != nil {
		s.log.Error("opening main window failed", "url", s.settings.InstanceURL, "error", err)
		return
	}
	s.mainWindow = w
	s.front = w
	if s.zoom != 1 {
		w.SetZoom(s.zoom)
	}
}

func (s *Shell) quitLocked(reason string) {
	if s.quitting {
		return
	}
	s.quitting = true
	s.log.Info("quitting", "reason", reason)
	s.host.Quit()
}

func (s *Shell) onWindowClosed(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quitting || ev.Window == nil {
		return
	}

	switch ev.Window {
	case s.settingsWindow:
		s.settingsWindow = nil
		s.forgetLocked(ev.Window)
		if s.mainWindow == nil && s.settings.InstanceURL == "" {
			s.quitLocked("setup closed without a server")
		}

	case s.mainWindow:
		s.mainWindow = nil
		s.forgetLocked(ev.Window)
		if !s.settings.CloseToTray {
			s.quitLocked("main window closed")
			return
		}
		if !s.trayHintShown {
			s.trayHintShown = true
			if err := s.host.Notify(AppName, "Docmost is still running in the tray."); err != nil {
				s.log.Debug("tray notification failed", "error", err)
			}
		}

	default:
		s.log.Debug("close event for a window the shell no longer tracks", "kind", ev.Window.Kind())
	}
}

func (s *Shell) onWindowBounds(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quitting || ev.Window == nil || ev.Window != s.mainWindow {
		return
	}
	s.settings.WindowBounds = ev.Bounds
	s.store.SaveWindowBoundsDebounced(ev.Bounds)
}

func (s *Shell) onTrayAction(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quitting {
		return
	}

	switch ev.Action {
	case ActionShow:
		s.openMainWindow()
	case ActionSettings:
		s.openSettingsWindow()
	case ActionQuit:
		s.quitLocked("tray")
	default:
		s.log.Debug("unknown tray action", "action", ev.Action)
	}
}

func (s *Shell) onMenuAction(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quitting {
		return
	}

	switch ev.Action {
	case ActionOpenSettings:
		s.openSettingsWindow()
	case ActionReload:
		if s.mainWindow != nil && s.settings.InstanceURL != "" {
			s.mainWindow.LoadURL(s.settings.InstanceURL)
		}
	case ActionQuitApp:
		s.quitLocked("menu")
	case ActionZoomIn:
		s.setZoomLocked(s.zoom + zoomStep)
	case ActionZoomOut:
		s.setZoomLocked(s.zoom - zoomStep)
	case ActionZoomReset:
		s.setZoomLocked(1)
	case ActionToggleFullscreen:
		if s.mainWindow != nil {
			s.mainWindow.ToggleFullscreen()
		}
	default:
		s.log.Debug("unknown menu action", "action", ev.Action)
	}
}

func (s *Shell) setZoomLocked(factor float64) {
	if s.mainWindow == nil {
		return
	}
	factor = math.Round(factor*10) / 10
	s.zoom = math.Min(zoomMax, math.Max(zoomMin, factor))
	s.mainWindow.SetZoom(s.zoom)
}
