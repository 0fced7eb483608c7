// Package config reads the project-level dairychain.json file, which lists
// the servers a project talks to. The file is searched for from the current
// directory upward, so commands work from anywhere inside a project.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const ConfigFileName = "dairychain.json"

// Server is one API server entry in the project config
type Server struct {
	URL   string `json:"url"`
	Alias string `json:"alias,omitempty"`
}

// Config is the project configuration
type Config struct {
	Servers []Server `json:"servers"`
}

// DefaultConfig returns a starter config pointing at a local server
func DefaultConfig() *Config {
	return &Config{
		Servers: []Server{
			{URL: "http://localhost:8002", Alias: "local"},
		},
	}
}

// FindConfigFile searches for dairychain.json starting from startDir and
// walking up the directory tree. Returns the path to the file, or an error
// if no config file is found.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no %s found in this directory or any parent", ConfigFileName)
		}
		dir = parent
	}
}

// Load reads and parses the config file at the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadFromCurrentDir finds and loads the config starting from the working
// directory
func LoadFromCurrentDir() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetServerByAlias returns the server with the given alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("no server with alias %q in %s", alias, ConfigFileName)
}

// GetServerByURL returns the server with the given URL
func (c *Config) GetServerByURL(url string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].URL == url {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("no server with URL %q in %s", url, ConfigFileName)
}

// GetDefaultServer returns the first configured server
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}
