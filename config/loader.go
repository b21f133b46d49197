package config

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	// WorkspaceConfigFile is the name of the workspace-level config file,
	// relative to the workspace state directory
	WorkspaceConfigFile = "config.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/maestro"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader resolves the effective configuration from its layers.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load resolves configuration in layered precedence: compiled-in defaults,
// then the user file under ~/.config/maestro, then the nearest workspace
// file found walking up from the working directory. Later layers win per
// field.
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	l.mergeLayer(config, l.userConfigPath(), "user")
	if path := l.findWorkspaceConfig(config.Workspace.Dir); path != "" {
		l.mergeLayer(config, path, "workspace")
	}

	if config.Workspace.Root == "" {
		config.Workspace.Root = l.defaultRoot()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeLayer merges one file layer into the accumulated config. A missing
// file is not an error; an unreadable or unparsable one is logged and
// skipped rather than failing the load.
func (l *Loader) mergeLayer(config *Config, path, layer string) {
	if path == "" {
		return
	}
	overlay, err := LoadFromFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("Skipping unreadable config layer",
				slog.String("layer", layer),
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return
	}
	l.logger.Debug("Merged config layer", slog.String("layer", layer), slog.String("path", path))
	config.Merge(overlay)
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findWorkspaceConfig searches for the workspace config in the state
// directory of the current and parent directories
func (l *Loader) findWorkspaceConfig(stateDir string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for dir := cwd; ; dir = filepath.Dir(dir) {
		configPath := filepath.Join(dir, stateDir, WorkspaceConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

// defaultRoot picks the workspace root when no layer names one: the
// enclosing git checkout if there is one, otherwise the working directory.
func (l *Loader) defaultRoot() string {
	out, err := exec.Command("git", "rev-parse", "--show-toplevel").Output()
	if err == nil {
		if root := strings.TrimSpace(string(out)); root != "" {
			l.logger.Debug("Workspace root from git checkout", slog.String("path", root))
			return root
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return cwd
}
