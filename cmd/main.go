package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/plextool/plextool/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	// optional, carries PLEXTOOL_BASEURL / PLEXTOOL_TOKEN for cron runs
	godotenv.Load()

	settingsPath, err := shared.DefaultSettingsPath()
	if err != nil {
		logger.Fatalf("resolving settings path: %v", err)
	}
	configPath, err := shared.DefaultConfigPath()
	if err != nil {
		logger.Fatalf("resolving config path: %v", err)
	}

	config := loadOrCreateConfig(logger, configPath)

	runner := NewRunner(RunnerOpts{
		Config:       config,
		ConfigPath:   configPath,
		SettingsPath: settingsPath,
		Logger:       logger,
	})

	app := &cli.Command{
		Name:     "plextool",
		Usage:    "Maintain a Plex music library: dedup, delete, download, update",
		Version:  version,
		Flags:    globalFlags(settingsPath, configPath),
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAborted) {
			logger.Warn("aborted, nothing changed")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// loadOrCreateConfig reads the TOML config, writing the template on first
// run. Every failure falls back to defaults so a broken config never blocks
// the tool.
func loadOrCreateConfig(logger *log.Logger, path string) *shared.Config {
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			logger.Warn("failed to load config, using defaults", "error", err)
			return shared.DefaultConfig()
		}
		return config
	}

	logger.Info("config file not found, creating from template", "path", path)
	if err := shared.CreateConfigFile(path); err != nil {
		logger.Warn("failed to create config file, using defaults", "error", err)
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		logger.Warn("failed to load created config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// globalFlags apply to every command and are read inside the actions.
// Persistent lets them sit before or after the subcommand name.
func globalFlags(settingsPath, configPath string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:       "settings",
			Usage:      "Path to the credentials file",
			Value:      settingsPath,
			Persistent: true,
		},
		&cli.StringFlag{
			Name:       "config",
			Aliases:    []string{"c"},
			Usage:      "Path to the configuration file",
			Value:      configPath,
			Persistent: true,
		},
		// no -v alias, the built-in version flag owns it
		&cli.BoolFlag{
			Name:       "verbose",
			Usage:      "Enable debug logging",
			Persistent: true,
		},
		&cli.BoolFlag{
			Name:       "json",
			Usage:      "Machine-readable output where supported",
			Persistent: true,
		},
	}
}
