package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/ra1phdd/systray-on-wails"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/menu/keys"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

const (
	boundsPollInterval = 250 * time.Millisecond

	// After a navigation the page script is retried on every poll until the
	// new page has had time to load. Afterwards it is refreshed slowly to
	// catch reloads done by the page itself.
	pageSettleTime = 5 * time.Second
	scriptRefresh  = 10 * time.Second
)

// DesktopApp is the Wails implementation of Host. Wails v2 has a single
// native window, so each opened Window is a surface stacked inside it: the
// top surface is displayed, closing it reveals the one below.
//
// mu guards the surface stack only. Runtime calls are queued on ui while mu
// is held and run after it is released, because Wails runs OnBeforeClose
// on the UI thread that those calls wait for.
type DesktopApp struct {
	eventBus

	log     *slog.Logger
	bridge  http.Handler
	appMenu *menu.Menu
	ui      uiQueue

	trayTitle string
	trayItems []TrayItem

	mu          sync.Mutex
	ctx         context.Context
	rt          windowRuntime
	ready       bool
	quitting    bool
	surfaces    []*surface
	loadedURL   string // "" while the embedded settings page is loaded
	lastFrame   WindowBounds
	navigatedAt time.Time
	injectedAt  time.Time
}

// NewDesktopApp creates the host.
func NewDesktopApp(log *slog.Logger) *DesktopApp {
	return &DesktopApp{log: log}
}

// ServeBridgeEndpoint makes h answer /bridge.json for the embedded settings
// page. Must be called before Run.
func (a *DesktopApp) ServeBridgeEndpoint(h http.Handler) {
	a.bridge = h
}

// surface implements Window.
type surface struct {
	app    *DesktopApp
	opts   WindowOptions
	zoom   float64
	closed bool
}

func (w *surface) Kind() WindowKind { return w.opts.Kind }

func (w *surface) Focus() {
	a := w.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if w.closed {
		return
	}
	a.raiseLocked(w)
	a.ui.push(a.displayLocked()...)
}

func (w *surface) Close() {
	a := w.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if w.closed {
		return
	}
	wasTop := a.topLocked() == w
	a.removeLocked(w)
	if wasTop {
		a.ui.push(a.displayLocked()...)
	}
}

func (w *surface) LoadURL(url string) {
	a := w.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if w.closed {
		return
	}
	w.opts.URL = url
	if a.topLocked() == w {
		a.ui.push(a.navigateLocked(w, true)...)
	}
}

func (w *surface) SetZoom(factor float64) {
	a := w.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if w.closed {
		return
	}
	w.zoom = factor
	if a.topLocked() == w {
		a.ui.push(a.zoomLocked(w)...)
	}
}

func (w *surface) ToggleFullscreen() {
	a := w.app
	a.mu.Lock()
	defer a.mu.Unlock()
	if w.closed || a.topLocked() != w || !a.ready {
		return
	}
	rt := a.rt
	a.ui.push(func() {
		if rt.IsFullscreen() {
			rt.Unfullscreen()
		} else {
			rt.Fullscreen()
		}
	})
}

// OpenWindow pushes a new surface on top and displays it.
func (a *DesktopApp) OpenWindow(opts WindowOptions) (Window, error) {
	if opts.Bounds.Width <= 0 || opts.Bounds.Height <= 0 {
		return nil, fmt.Errorf("open %s window: invalid size %dx%d", opts.Kind, opts.Bounds.Width, opts.Bounds.Height)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	w := &surface{app: a, opts: opts, zoom: 1}
	a.surfaces = append(a.surfaces, w)
	a.ui.push(a.displayLocked()...)
	a.log.Info("window opened", "kind", opts.Kind, "url", opts.URL)
	return w, nil
}

// SetTray records the tray menu. The tray is registered by Run.
func (a *DesktopApp) SetTray(title string, items []TrayItem) error {
	a.trayTitle = title
	a.trayItems = items
	return nil
}

// SetApplicationMenu builds the native menu from items.
func (a *DesktopApp) SetApplicationMenu(items []MenuItem) error {
	m := menu.NewMenu()
	for _, top := range items {
		switch top.Role {
		case RoleEditMenu:
			m.Append(menu.EditMenu())
			continue
		case RoleWindowMenu:
			m.Append(menu.WindowMenu())
			continue
		}
		if len(top.Submenu) == 0 {
			return fmt.Errorf("menu %q has no items", top.Label)
		}
		a.addMenuItems(m.AddSubmenu(top.Label), top.Submenu)
	}
	a.appMenu = m

	a.mu.Lock()
	ctx := a.ctx
	a.mu.Unlock()
	if ctx != nil {
		wailsRuntime.MenuSetApplicationMenu(ctx, m)
	}
	return nil
}

func (a *DesktopApp) addMenuItems(sub *menu.Menu, items []MenuItem) {
	for _, item := range items {
		switch {
		case item.Separator:
			sub.AddSeparator()
		case item.Role != "":
			// Wails v2 provides whole role menus only; individual app-menu roles
			// are supplied by the platform on macOS.
			a.log.Debug("menu role left to the platform", "role", item.Role)
		case item.Action != "":
			var accel *keys.Accelerator
			if item.Key != "" {
				accel = keys.CmdOrCtrl(item.Key)
			}
			action := item.Action
			sub.AddText(item.Label, accel, func(_ *menu.CallbackData) {
				go a.emit(Event{Kind: EventMenuAction, Action: action})
			})
		}
	}
}

// Notify shows a desktop notification.
func (a *DesktopApp) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// Quit terminates the application.
func (a *DesktopApp) Quit() {
	a.mu.Lock()
	a.quitting = true
	ctx := a.ctx
	a.mu.Unlock()

	systray.Quit()
	if ctx == nil {
		a.log.Error("quit requested before the window runtime started")
		return
	}
	wailsRuntime.Quit(ctx)
}

// Run starts the tray and the Wails run loop. It blocks until the app quits
// and must be called from the main goroutine.
func (a *DesktopApp) Run(assets fs.FS) error {
	a.initSystray()

	return wails.Run(&options.App{
		Title:     AppName,
		Width:     DefaultSettings().WindowBounds.Width,
		Height:    DefaultSettings().WindowBounds.Height,
		MinWidth:  400,
		MinHeight: 300,
		// Shown by the first display once a surface is open.
		StartHidden: true,
		AssetServer: &assetserver.Options{
			Assets:  assets,
			Handler: a.assetHandler(),
		},
		OnStartup:     a.startup,
		OnDomReady:    a.onDomReady,
		OnBeforeClose: a.beforeClose,
		OnShutdown:    a.shutdown,
		Menu:          a.appMenu,
		SingleInstanceLock: &options.SingleInstanceLock{
			UniqueId: AppIdentifier,
			OnSecondInstanceLaunch: func(options.SecondInstanceData) {
				// A second launch behaves like "Show Docmost" from the tray.
				go a.emit(Event{Kind: EventTrayAction, Action: ActionShow})
			},
		},
		Mac: &mac.Options{
			About: &mac.AboutInfo{
				Title:   AppName,
				Message: "Version " + AppVersion,
				Icon:    appIconPNG,
			},
		},
		Linux: &linux.Options{
			Icon:        appIconPNG,
			ProgramName: "docmost-desktop",
		},
	})
}

// assetHandler serves requests the embedded assets don't cover.
func (a *DesktopApp) assetHandler() http.Handler {
	mux := http.NewServeMux()
	if a.bridge != nil {
		mux.Handle("/bridge.json", a.bridge)
	}
	return mux
}

// startup is called when the Wails app starts.
func (a *DesktopApp) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.rt = wailsWindow{ctx: ctx}
	a.mu.Unlock()

	beeep.AppName = AppName
	go a.ui.run(ctx)
	go a.watchWindow(ctx)
	a.log.Debug("Wails OnStartup")
}

// onDomReady fires whenever the embedded settings page has loaded. The first
// call makes the window controllable.
func (a *DesktopApp) onDomReady(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.loadedURL = ""
	if !a.ready && a.rt != nil {
		a.ready = true
		a.log.Debug("Wails OnDomReady: window ready")
		a.ui.push(a.displayLocked()...)
	}
}

// beforeClose turns the native close button into closing the top surface.
// The native window is only hidden; quitting is the shell's decision. It runs
// on the UI thread and must not call the runtime itself.
func (a *DesktopApp) beforeClose(ctx context.Context) (prevent bool) {
	a.mu.Lock()
	if a.quitting {
		a.mu.Unlock()
		return false
	}
	top := a.topLocked()
	if top != nil {
		a.removeLocked(top)
	}
	a.ui.push(a.displayLocked()...)
	a.mu.Unlock()

	if top != nil {
		a.log.Info("window closed by user", "kind", top.opts.Kind)
		go a.emit(Event{Kind: EventWindowClosed, Window: top})
	}
	return true
}

// shutdown is called when the Wails app is closing.
func (a *DesktopApp) shutdown(ctx context.Context) {
	a.mu.Lock()
	a.quitting = true
	a.mu.Unlock()
	systray.Quit()
}

// toggleWindow shows the window if hidden/minimized, hides it if visible.
func (a *DesktopApp) toggleWindow() {
	visible, minimized := isAppWindowVisible()
	if visible && !minimized {
		a.mu.Lock()
		if a.ready {
			a.ui.push(a.rt.Hide)
		}
		a.mu.Unlock()
		return
	}
	go a.emit(Event{Kind: EventTrayAction, Action: ActionShow})
}

// initSystray sets up the system tray icon and menu.
func (a *DesktopApp) initSystray() {
	items := a.trayItems
	title := a.trayTitle

	systray.Register(func() {
		systray.SetIcon(trayIcon())
		systray.SetTitle(title)
		systray.SetTooltip(fmt.Sprintf("%s v%s", AppName, AppVersion))

		for _, item := range items {
			if item.Divider {
				systray.AddSeparator()
				continue
			}
			mi := systray.AddMenuItem(item.Label, item.Tooltip)
			go a.forwardTrayClicks(mi, item.Action)
		}

		// Double-click on Windows shows or hides the window.
		subclassSystray(a.toggleWindow)
	}, nil)
}

func (a *DesktopApp) forwardTrayClicks(mi *systray.MenuItem, action string) {
	for range mi.ClickedCh {
		a.log.Debug("tray item clicked", "action", action)
		a.emit(Event{Kind: EventTrayAction, Action: action})
	}
}

// watchWindow reports frame changes of the top remote surface. Wails v2 has
// no resize or move events.
func (a *DesktopApp) watchWindow(ctx context.Context) {
	ticker := time.NewTicker(boundsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			a.pollWindow(now)
		}
	}
}

func (a *DesktopApp) pollWindow(now time.Time) {
	a.mu.Lock()
	top := a.topLocked()
	if !a.ready || a.quitting || top == nil || top.opts.URL == "" {
		a.mu.Unlock()
		return
	}
	rt := a.rt
	a.ui.push(a.pageScriptLocked(top, now)...)
	a.mu.Unlock()

	x, y := rt.Position()
	w, h := rt.Size()
	frame := WindowBounds{X: x, Y: y, Width: w, Height: h}

	a.mu.Lock()
	changed := a.topLocked() == top && frame != a.lastFrame && w > 0 && h > 0
	if changed {
		a.lastFrame = frame
		top.opts.Bounds = frame
	}
	a.mu.Unlock()

	if changed {
		a.emit(Event{Kind: EventWindowBounds, Window: top, Bounds: frame})
	}
}

// pageScriptLocked re-applies the page script and zoom while a navigation
// settles, and then every scriptRefresh.
func (a *DesktopApp) pageScriptLocked(w *surface, now time.Time) []func() {
	settling := now.Sub(a.navigatedAt) < pageSettleTime
	if !settling && now.Sub(a.injectedAt) < scriptRefresh {
		return nil
	}
	a.injectedAt = now

	var ops []func()
	if script := w.opts.PageScript; script != "" {
		rt := a.rt
		ops = append(ops, func() { rt.ExecJS(script) })
	}
	if w.zoom != 1 {
		ops = append(ops, a.zoomLocked(w)...)
	}
	return ops
}

func (a *DesktopApp) topLocked() *surface {
	if len(a.surfaces) == 0 {
		return nil
	}
	return a.surfaces[len(a.surfaces)-1]
}

func (a *DesktopApp) raiseLocked(w *surface) {
	for i, s := range a.surfaces {
		if s == w {
			a.surfaces = append(a.surfaces[:i], a.surfaces[i+1:]...)
			break
		}
	}
	a.surfaces = append(a.surfaces, w)
}

func (a *DesktopApp) removeLocked(w *surface) {
	w.closed = true
	for i, s := range a.surfaces {
		if s == w {
			a.surfaces = append(a.surfaces[:i], a.surfaces[i+1:]...)
			return
		}
	}
}

// displayLocked returns the operations that show the top surface, or hide
// the native window when no surface is left.
func (a *DesktopApp) displayLocked() []func() {
	if !a.ready {
		return nil
	}
	rt := a.rt
	top := a.topLocked()
	if top == nil {
		return []func(){rt.Hide}
	}

	b := top.opts.Bounds
	title := top.opts.Title
	a.lastFrame = b

	ops := []func(){
		func() { rt.SetTitle(title) },
		func() { rt.SetSize(b.Width, b.Height) },
		func() { rt.SetPosition(b.X, b.Y) },
	}
	ops = append(ops, a.navigateLocked(top, false)...)
	return append(ops,
		rt.Show,
		rt.Unminimise,
		func() { setWindowIcon(title) },
	)
}

// navigateLocked loads the surface's page unless it is already loaded.
func (a *DesktopApp) navigateLocked(w *surface, force bool) []func() {
	if !a.ready {
		return nil
	}
	if !force && a.loadedURL == w.opts.URL {
		return a.zoomLocked(w)
	}

	rt := a.rt
	if w.opts.URL == "" {
		a.loadedURL = ""
		return []func(){rt.ReloadApp}
	}
	target, _ := json.Marshal(w.opts.URL)
	js := "window.location.replace(" + string(target) + ");"
	a.loadedURL = w.opts.URL
	a.navigatedAt = time.Now()
	return []func(){func() { rt.ExecJS(js) }}
}

func (a *DesktopApp) zoomLocked(w *surface) []func() {
	if !a.ready || w.opts.URL == "" {
		return nil
	}
	rt := a.rt
	js := fmt.Sprintf("document.documentElement.style.zoom = %q;", fmt.Sprintf("%.1f", w.zoom))
	return []func(){func() { rt.ExecJS(js) }}
}
