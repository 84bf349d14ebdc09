package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaosAD/FakeMFRC552/mfrcsim/internal/config"
)

const configFileName = "config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
		logFormat  string
		timeout    time.Duration
	)
	a := &app{}

	root := &cobra.Command{
		Use:          "mfrcsim",
		Short:        "Simulated MFRC522 card reader/writer",
		Long:         "Read and write simulated contactless cards whose memory lives in a JSON card table",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(verbose, logFormat)

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("timeout") {
				if timeout < 0 {
					return fmt.Errorf("--timeout must be >= 0")
				}
				cfg.Reader.Timeout = &timeout
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: next to the executable, then the working directory)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	root.PersistentFlags().DurationVar(&timeout, "timeout", config.DefaultTimeout, "how long to wait for a card (0 waits forever)")

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newNormalizeCmd(a),
		newNewCmd(a),
		newReadCmd(a),
		newWriteCmd(a),
		newUIDCmd(a),
		newImportCmd(a),
	)
	return root
}

func setupLogging(verbose bool, logFormat string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}
}

// loadConfig loads the explicit config file, or the default one when it
// exists, or falls back to built-in defaults relative to the working
// directory.
func loadConfig(explicit string) (*config.Config, error) {
	if explicit != "" {
		cfg, err := config.Load(explicit)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		slog.Debug("using config", "path", explicit)
		return cfg, nil
	}

	if path, ok := defaultConfigPath(); ok {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config load failed: %w", err)
		}
		slog.Debug("using config", "path", path)
		return cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	slog.Debug("no config file, using defaults", "dir", cwd)
	return config.Default(cwd), nil
}

func defaultConfigPath() (string, bool) {
	if exePath, err := os.Executable(); err == nil {
		exeConfigPath := filepath.Join(filepath.Dir(exePath), configFileName)
		if fileExists(exeConfigPath) {
			return exeConfigPath, true
		}
	}

	// Fallback for `go run`, where the executable is placed in a temp directory.
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	cwdConfigPath := filepath.Join(cwd, configFileName)
	if fileExists(cwdConfigPath) {
		return cwdConfigPath, true
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
