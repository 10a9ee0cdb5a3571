package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"DocmostDesktop/bridge"
)

func main() {
	Execute()
}

// runDesktop starts the settings bridge, the shell controller and the window
// runtime, and blocks until the user quits.
func runDesktop(logLevel string) error {
	logFile, err := InitLogger(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
	} else {
		defer logFile.Close()
	}
	Log.Info("starting", "version", AppVersion, "dataDir", AppDataDir(), "logLevel", GetLogLevel())

	release, err := acquireInstanceLock(AppDataDir())
	switch {
	case errors.Is(err, errAlreadyRunning):
		// Wails' single-instance lock hands over to the running instance.
		Log.Info("another instance is running")
	case err != nil:
		Log.Error("instance lock failed", "error", err)
	default:
		defer release()
	}

	app := NewDesktopApp(Log.With("component", "host"))
	store := NewSettingsStore(settingsPath())
	shell := NewShell(app, store, Log.With("component", "shell"))

	srv, err := bridge.NewServer(shell, Log.With("component", "bridge"))
	if err != nil {
		return fmt.Errorf("start settings bridge: %w", err)
	}
	shell.AttachPages(srv)
	app.ServeBridgeEndpoint(srv.EndpointHandler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(gctx)
	})

	if err := shell.Init(); err != nil {
		cancel()
		g.Wait()
		return err
	}

	runErr := app.Run(settingsFS())
	shell.Shutdown()

	cancel()
	if err := g.Wait(); err != nil {
		Log.Error("settings bridge stopped with error", "error", err)
	}
	if runErr != nil {
		Log.Error("window runtime failed", "error", runErr)
	}
	return runErr
}
