package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errAlreadyRunning = errors.New(AppName + " is already running")

var (
	dataDirFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "docmost-desktop",
	Short:         "Desktop shell for a Docmost server",
	Long:          "Docmost Desktop opens your Docmost server in its own window, with a tray icon and remembered window position.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if dataDirFlag != "" {
			SetDataDir(dataDirFlag)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDesktop(logLevelFlag)
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := NewSettingsStore(settingsPath())
		out := struct {
			Path     string      `yaml:"path"`
			Settings AppSettings `yaml:"settings"`
		}{store.Path(), store.Load()}

		data, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the configured server so the setup window shows on next launch",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if instanceRunning(filepath.Dir(settingsPath())) {
			return fmt.Errorf("%w: quit it before resetting", errAlreadyRunning)
		}
		empty := ""
		store := NewSettingsStore(settingsPath())
		if _, err := store.Save(SettingsPatch{InstanceURL: &empty}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Server URL cleared in %s\n", store.Path())
		return nil
	},
}

func init() {
	rootCmd.Version = AppVersion
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory for settings and logs (default: user config dir)")
	rootCmd.Flags().StringVar(&logLevelFlag, "log-level", "error", "Log level: error, info or debug")
	rootCmd.AddCommand(settingsCmd, resetCmd)
}

// settingsPath resolves settings.json, honouring --data-dir.
func settingsPath() string {
	if dataDirFlag != "" {
		return filepath.Join(dataDirFlag, settingsFileName)
	}
	return DataPath(settingsFileName)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
