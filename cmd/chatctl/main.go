package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AvineetYadav/CHAT-APP/pkg/chatclient"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

// Config is the CLI configuration stored in ~/.chatctl/config.toml.
type Config struct {
	Server ConfigServer `toml:"server"`
	Auth   ConfigAuth   `toml:"auth"`
}

type ConfigServer struct {
	URL string `toml:"url"`
}

type ConfigAuth struct {
	Token    string `toml:"token"`
	UserID   string `toml:"user_id"`
	Username string `toml:"username"`
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".chatctl")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func loadConfig() (*Config, error) {
	cfg := &Config{Server: ConfigServer{URL: "http://localhost:8080"}}

	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}
	if cfg.Server.URL == "" {
		cfg.Server.URL = "http://localhost:8080"
	}
	return cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// newClient builds an API client from the saved config. Commands that need
// auth should check that a token is present.
func newClient(cfg *Config) *chatclient.Client {
	c := chatclient.New(cfg.Server.URL)
	if cfg.Auth.Token != "" {
		userID, err := uuid.Parse(cfg.Auth.UserID)
		if err == nil {
			c.SetAuth(cfg.Auth.Token, userID)
		}
	}
	return c
}

func requireAuth(cfg *Config) error {
	if cfg.Auth.Token == "" {
		return fmt.Errorf("not logged in; run 'chatctl login <email>' first")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "chatctl",
	Short: "Command-line client for the chat server",
	Long:  "chatctl talks to the chat server over its REST API and realtime channel.\nConfiguration lives in ~/.chatctl/config.toml.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
