// Package userconfig stores per-user CLI state under the XDG config
// directory: the currently selected server and, after a guard redirect, the
// command to return to once the user has logged in.
package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "dairychain"
	configFileName = "config.json"
)

// UserConfig is the persisted per-user CLI state
type UserConfig struct {
	// SelectedServer is the URL of the server the user last selected
	SelectedServer string `json:"selected_server,omitempty"`
	// ReturnTo is the command the user originally attempted before being
	// sent to login. Cleared once replayed.
	ReturnTo string `json:"return_to,omitempty"`
}

// configPath returns the path to the user config file
func configPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, configDirName, configFileName), nil
}

// Load reads the user config. A missing file is not an error; it returns an
// empty config.
func Load() (*UserConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &cfg, nil
}

// Save writes the user config, creating the directory if needed
func (c *UserConfig) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode user config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// SetSelectedServer persists the selected server URL
func SetSelectedServer(url string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.SelectedServer = url
	return cfg.Save()
}

// GetSelectedServer returns the persisted server URL, empty if none
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return cfg.SelectedServer, nil
}

// SetReturnTo remembers the command to replay after login
func SetReturnTo(command string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	cfg.ReturnTo = command
	return cfg.Save()
}

// TakeReturnTo returns the remembered command and clears it
func TakeReturnTo() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	command := cfg.ReturnTo
	if command == "" {
		return "", nil
	}
	cfg.ReturnTo = ""
	if err := cfg.Save(); err != nil {
		return "", err
	}
	return command, nil
}
