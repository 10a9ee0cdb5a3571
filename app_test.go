package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wailsapp/wails/v2/pkg/menu"
)

// recordingRuntime records window runtime calls in order.
type recordingRuntime struct {
	mu         sync.Mutex
	calls      []string
	x, y       int
	w, h       int
	fullscreen bool
}

func (r *recordingRuntime) record(format string, args ...any) {
	r.mu.Lock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

func (r *recordingRuntime) SetTitle(title string)     { r.record("title %s", title) }
func (r *recordingRuntime) SetSize(width, height int) { r.record("size %dx%d", width, height) }
func (r *recordingRuntime) SetPosition(x, y int)      { r.record("pos %d,%d", x, y) }
func (r *recordingRuntime) Show()                     { r.record("show") }
func (r *recordingRuntime) Hide()                     { r.record("hide") }
func (r *recordingRuntime) Unminimise()               { r.record("unminimise") }
func (r *recordingRuntime) ExecJS(js string)          { r.record("js %s", js) }
func (r *recordingRuntime) ReloadApp()                { r.record("reload") }
func (r *recordingRuntime) Fullscreen()               { r.record("fullscreen"); r.fullscreen = true }
func (r *recordingRuntime) Unfullscreen()             { r.record("unfullscreen"); r.fullscreen = false }
func (r *recordingRuntime) IsFullscreen() bool        { return r.fullscreen }

func (r *recordingRuntime) Position() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.x, r.y
}

func (r *recordingRuntime) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.w, r.h
}

// take returns and clears the recorded calls.
func (r *recordingRuntime) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := r.calls
	r.calls = nil
	return calls
}

func (r *recordingRuntime) setFrame(b WindowBounds) {
	r.mu.Lock()
	r.x, r.y, r.w, r.h = b.X, b.Y, b.Width, b.Height
	r.mu.Unlock()
}

// newTestApp returns a host whose window is ready, backed by a recording
// runtime. Queued runtime calls run when the test drains a.ui.
func newTestApp(t *testing.T) (*DesktopApp, *recordingRuntime) {
	t.Helper()
	a := NewDesktopApp(slog.New(slog.DiscardHandler))
	rt := &recordingRuntime{}
	a.rt = rt
	a.ready = true
	return a, rt
}

func settingsOpts() WindowOptions {
	return WindowOptions{Kind: SettingsWindow, Title: "Setup", Bounds: WindowBounds{X: 300, Y: 200, Width: 500, Height: 450}}
}

func mainOpts() WindowOptions {
	return WindowOptions{
		Kind:       MainWindow,
		Title:      "Docmost",
		URL:        "https://docs.example.com",
		Bounds:     WindowBounds{X: 10, Y: 20, Width: 900, Height: 700},
		PageScript: "fixPage()",
	}
}

func mustOpen(t *testing.T, a *DesktopApp, opts WindowOptions) *surface {
	t.Helper()
	w, err := a.OpenWindow(opts)
	if err != nil {
		t.Fatalf("OpenWindow(%v): %v", opts.Kind, err)
	}
	return w.(*surface)
}

func stackKinds(a *DesktopApp) []WindowKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	var kinds []WindowKind
	for _, s := range a.surfaces {
		kinds = append(kinds, s.opts.Kind)
	}
	return kinds
}

func sameKinds(a, b []WindowKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDesktopApp_OpenWindowRejectsInvalidSize(t *testing.T) {
	tests := []WindowBounds{
		{Width: 0, Height: 400},
		{Width: 400, Height: 0},
		{Width: -1, Height: -1},
	}
	a, rt := newTestApp(t)
	for _, b := range tests {
		opts := settingsOpts()
		opts.Bounds = b
		if _, err := a.OpenWindow(opts); err == nil {
			t.Errorf("OpenWindow with bounds %+v succeeded", b)
		}
	}
	a.ui.drain()
	if len(stackKinds(a)) != 0 || len(rt.take()) != 0 {
		t.Error("rejected window changed the stack or the native window")
	}
}

func TestDesktopApp_OpenWindowDisplaysTop(t *testing.T) {
	a, rt := newTestApp(t)

	mustOpen(t, a, settingsOpts())
	a.ui.drain()
	want := []string{"title Setup", "size 500x450", "pos 300,200", "show", "unminimise"}
	if got := rt.take(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("settings display calls = %q, want %q", got, want)
	}

	mustOpen(t, a, mainOpts())
	a.ui.drain()
	calls := rt.take()
	if len(calls) < 4 || calls[3] != `js window.location.replace("https://docs.example.com");` {
		t.Errorf("main display calls = %q, want navigation to the server", calls)
	}
	if got := stackKinds(a); !sameKinds(got, []WindowKind{SettingsWindow, MainWindow}) {
		t.Errorf("stack = %v", got)
	}
}

func TestDesktopApp_NotReadyQueuesNothing(t *testing.T) {
	a := NewDesktopApp(slog.New(slog.DiscardHandler))
	mustOpen(t, a, mainOpts())

	a.ui.mu.Lock()
	queued := len(a.ui.ops)
	a.ui.mu.Unlock()
	if queued != 0 {
		t.Errorf("%d runtime calls queued before the window was ready", queued)
	}
}

func TestDesktopApp_FocusRaises(t *testing.T) {
	a, _ := newTestApp(t)
	mw := mustOpen(t, a, mainOpts())
	mustOpen(t, a, settingsOpts())

	mw.Focus()
	if got := stackKinds(a); !sameKinds(got, []WindowKind{SettingsWindow, MainWindow}) {
		t.Errorf("stack after Focus = %v, want main on top", got)
	}
}

func TestDesktopApp_Close(t *testing.T) {
	tests := []struct {
		name        string
		closeTop    bool
		wantStack   []WindowKind
		wantDisplay bool
	}{
		{name: "top surface", closeTop: true, wantStack: []WindowKind{MainWindow}, wantDisplay: true},
		{name: "lower surface", closeTop: false, wantStack: []WindowKind{SettingsWindow}, wantDisplay: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rt := newTestApp(t)
			lower := mustOpen(t, a, mainOpts())
			top := mustOpen(t, a, settingsOpts())
			a.ui.drain()
			rt.take()

			target := lower
			if tt.closeTop {
				target = top
			}
			target.Close()
			a.ui.drain()

			if got := stackKinds(a); !sameKinds(got, tt.wantStack) {
				t.Errorf("stack = %v, want %v", got, tt.wantStack)
			}
			if got := len(rt.take()) > 0; got != tt.wantDisplay {
				t.Errorf("native window updated = %v, want %v", got, tt.wantDisplay)
			}

			// Calls on a closed surface are ignored.
			target.Focus()
			target.LoadURL("https://other.example.com")
			if got := stackKinds(a); !sameKinds(got, tt.wantStack) {
				t.Errorf("closed surface came back: %v", got)
			}
		})
	}
}

func TestDesktopApp_CloseLastHides(t *testing.T) {
	a, rt := newTestApp(t)
	w := mustOpen(t, a, settingsOpts())
	a.ui.drain()
	rt.take()

	w.Close()
	a.ui.drain()
	if got := rt.take(); len(got) != 1 || got[0] != "hide" {
		t.Errorf("calls = %q, want hide", got)
	}
}

func TestDesktopApp_BeforeClose(t *testing.T) {
	a, _ := newTestApp(t)
	lower := mustOpen(t, a, mainOpts())
	top := mustOpen(t, a, settingsOpts())

	events := make(chan Event, 4)
	a.On(EventWindowClosed, func(ev Event) { events <- ev })

	if prevent := a.beforeClose(context.Background()); !prevent {
		t.Fatal("beforeClose let the native window close")
	}

	select {
	case ev := <-events:
		if ev.Window != Window(top) {
			t.Errorf("close event for %v, want the top surface", ev.Window.Kind())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no close event")
	}
	select {
	case ev := <-events:
		t.Errorf("extra close event for %v", ev.Window.Kind())
	case <-time.After(50 * time.Millisecond):
	}

	if got := stackKinds(a); !sameKinds(got, []WindowKind{MainWindow}) {
		t.Errorf("stack = %v", got)
	}
	if lower.closed {
		t.Error("lower surface marked closed")
	}

	a.mu.Lock()
	a.quitting = true
	a.mu.Unlock()
	if prevent := a.beforeClose(context.Background()); prevent {
		t.Error("beforeClose blocked quitting")
	}
}

// beforeClose must return while another goroutine is inside a runtime call.
func TestDesktopApp_BeforeCloseDuringRuntimeCall(t *testing.T) {
	a, _ := newTestApp(t)
	mustOpen(t, a, mainOpts())

	blocked := make(chan struct{})
	release := make(chan struct{})
	a.ui.push(func() {
		close(blocked)
		<-release
	})
	go a.ui.drain()
	<-blocked

	done := make(chan bool, 1)
	go func() { done <- a.beforeClose(context.Background()) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("beforeClose blocked behind a runtime call")
	}
	close(release)
}

func TestDesktopApp_PollWindowReportsBounds(t *testing.T) {
	a, rt := newTestApp(t)
	mw := mustOpen(t, a, mainOpts())
	a.ui.drain()

	var got []WindowBounds
	a.On(EventWindowBounds, func(ev Event) {
		if ev.Window == Window(mw) {
			got = append(got, ev.Bounds)
		}
	})

	now := time.Now()
	rt.setFrame(mainOpts().Bounds)
	a.pollWindow(now)

	moved := WindowBounds{X: 50, Y: 60, Width: 1000, Height: 750}
	rt.setFrame(moved)
	a.pollWindow(now.Add(boundsPollInterval))
	a.pollWindow(now.Add(2 * boundsPollInterval))

	if len(got) != 1 || got[0] != moved {
		t.Errorf("bounds events = %+v, want one with %+v", got, moved)
	}
}

func TestDesktopApp_PageScriptRefresh(t *testing.T) {
	a, rt := newTestApp(t)
	mustOpen(t, a, mainOpts())
	a.ui.drain()
	rt.take()

	scripts := func() int {
		a.ui.drain()
		n := 0
		for _, c := range rt.take() {
			if c == "js fixPage()" {
				n++
			}
		}
		return n
	}

	a.mu.Lock()
	navigated := a.navigatedAt
	a.mu.Unlock()

	steps := []struct {
		after time.Duration
		want  int
	}{
		{after: time.Second, want: 1},
		{after: 2 * time.Second, want: 1},
		{after: pageSettleTime + time.Second, want: 0},
		{after: pageSettleTime + time.Second + boundsPollInterval, want: 0},
		{after: 2*time.Second + scriptRefresh, want: 1},
		{after: 2*time.Second + scriptRefresh + boundsPollInterval, want: 0},
	}
	for _, step := range steps {
		a.pollWindow(navigated.Add(step.after))
		if n := scripts(); n != step.want {
			t.Errorf("page script ran %d times at +%v, want %d", n, step.after, step.want)
		}
	}
}

func TestDesktopApp_ZoomAndFullscreen(t *testing.T) {
	a, rt := newTestApp(t)
	mw := mustOpen(t, a, mainOpts())
	a.ui.drain()
	rt.take()

	mw.SetZoom(1.5)
	mw.ToggleFullscreen()
	a.ui.drain()

	want := []string{`js document.documentElement.style.zoom = "1.5";`, "fullscreen"}
	if got := rt.take(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q, want %q", got, want)
	}
}

func TestDesktopApp_SetApplicationMenu(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.SetApplicationMenu(applicationMenu()); err != nil {
		t.Fatalf("SetApplicationMenu: %v", err)
	}
	items := a.appMenu.Items
	if len(items) != 4 {
		t.Fatalf("menu has %d top-level items, want 4", len(items))
	}
	if items[1].Role != menu.EditMenuRole {
		t.Errorf("second menu role = %v, want edit menu", items[1].Role)
	}
	if items[3].Role != menu.WindowMenuRole {
		t.Errorf("last menu role = %v, want window menu", items[3].Role)
	}
	if items[2].Label != "View" || items[2].SubMenu == nil || len(items[2].SubMenu.Items) != 7 {
		t.Errorf("View menu = %+v", items[2])
	}

	err := a.SetApplicationMenu([]MenuItem{{Label: "Empty"}})
	if err == nil {
		t.Error("empty submenu accepted")
	}
}

func TestDesktopApp_AssetHandler(t *testing.T) {
	a, _ := newTestApp(t)
	a.ServeBridgeEndpoint(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"url":"ws://127.0.0.1:1/bridge","token":"t"}`)
	}))
	h := a.assetHandler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bridge.json", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"token":"t"`) {
		t.Errorf("/bridge.json = %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("/other = %d, want 404", rec.Code)
	}
}
