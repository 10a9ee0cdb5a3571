package main

import (
	"context"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// windowRuntime is the part of the Wails runtime the host drives. On Windows
// most of these calls wait for the UI thread, so they must never run while
// DesktopApp.mu is held.
type windowRuntime interface {
	SetTitle(title string)
	SetSize(width, height int)
	SetPosition(x, y int)
	Position() (x, y int)
	Size() (width, height int)
	Show()
	Hide()
	Unminimise()
	ExecJS(js string)
	ReloadApp()
	IsFullscreen() bool
	Fullscreen()
	Unfullscreen()
}

// wailsWindow forwards to the Wails runtime of the native window.
type wailsWindow struct {
	ctx context.Context
}

func (w wailsWindow) SetTitle(title string) { wailsRuntime.WindowSetTitle(w.ctx, title) }
func (w wailsWindow) SetSize(width, height int) { wailsRuntime.WindowSetSize(w.ctx, width, height) }
func (w wailsWindow) SetPosition(x, y int) { wailsRuntime.WindowSetPosition(w.ctx, x, y) }
func (w wailsWindow) Position() (int, int) { return wailsRuntime.WindowGetPosition(w.ctx) }
func (w wailsWindow) Size() (int, int) { return wailsRuntime.WindowGetSize(w.ctx) }
func (w wailsWindow) Show() { wailsRuntime.WindowShow(w.ctx) }
func (w wailsWindow) Hide() { wailsRuntime.WindowHide(w.ctx) }
func (w wailsWindow) Unminimise() { wailsRuntime.WindowUnminimise(w.ctx) }
func (w wailsWindow) ExecJS(js string) { wailsRuntime.WindowExecJS(w.ctx, js) }
func (w wailsWindow) ReloadApp() { wailsRuntime.WindowReloadApp(w.ctx) }
func (w wailsWindow) IsFullscreen() bool { return wailsRuntime.WindowIsFullscreen(w.ctx) }
func (w wailsWindow) Fullscreen() { wailsRuntime.WindowFullscreen(w.ctx) }
func (w wailsWindow) Unfullscreen() { wailsRuntime.WindowUnfullscreen(w.ctx) }

// uiQueue runs window operations in order on one goroutine. push never
// blocks, so it is safe to call with DesktopApp.mu held.
type uiQueue struct {
	mu   sync.Mutex
	ops  []func()
	wake chan struct{}
	once sync.Once
}

func (q *uiQueue) init() {
	q.once.Do(func() { q.wake = make(chan struct{}, 1) })
}

func (q *uiQueue) push(ops ...func()) {
	if len(ops) == 0 {
		return
	}
	q.init()
	q.mu.Lock()
	q.ops = append(q.ops, ops...)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain runs queued operations until the queue is empty.
func (q *uiQueue) drain() {
	for {
		q.mu.Lock()
		ops := q.ops
		q.ops = nil
		q.mu.Unlock()
		if len(ops) == 0 {
			return
		}
		for _, op := range ops {
			op()
		}
	}
}

func (q *uiQueue) run(ctx context.Context) {
	q.init()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
		q.drain()
	}
}
