// Package config handles loading and managing imsgvault configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the imsgvault configuration.
type Config struct {
	Data     DataConfig     `toml:"data"`
	IMessage IMessageConfig `toml:"imessage"`
	Server   ServerConfig   `toml:"server"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	configPath string
}

// DataConfig holds local output locations.
type DataConfig struct {
	DataDir   string `toml:"data_dir"`
	ExportDir string `toml:"export_dir"`
}

// IMessageConfig overrides where the Messages and Contacts stores are read
// from. Empty values use the macOS defaults under the user's home directory.
type IMessageConfig struct {
	DatabasePath   string `toml:"database_path"`
	AddressBookDir string `toml:"addressbook_dir"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`         // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`        // Listen address (default: 127.0.0.1)
	APIKey          string   `toml:"api_key"`          // API authentication key
	AllowInsecure   bool     `toml:"allow_insecure"`   // Permit a non-loopback bind without api_key
	CORSOrigins     []string `toml:"cors_origins"`     // Allowed origins; empty disables CORS
	CORSCredentials bool     `toml:"cors_credentials"` // Allow credentialed CORS requests
	CORSMaxAge      int      `toml:"cors_max_age"`     // Preflight cache seconds
}

// ValidateSecure refuses to expose the API beyond loopback without an API
// key unless allow_insecure is set.
func (s ServerConfig) ValidateSecure() error {
	if s.APIKey != "" || s.AllowInsecure || IsLoopback(s.BindAddr) {
		return nil
	}
	return fmt.Errorf("refusing to bind API server to %s without authentication\n\n"+
		"Set [server] api_key in config.toml, or set allow_insecure = true to override", s.BindAddr)
}

// IsLoopback reports whether addr is empty, "localhost" or a loopback IP.
func IsLoopback(addr string) bool {
	if addr == "" || strings.EqualFold(addr, "localhost") {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// DefaultHome returns the default imsgvault home directory.
// Respects the IMSGVAULT_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("IMSGVAULT_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".imsgvault"
	}
	return filepath.Join(home, ".imsgvault")
}

// NewDefaultConfig returns a configuration with default values rooted at
// DefaultHome.
func NewDefaultConfig() *Config {
	return newConfig(DefaultHome())
}

func newConfig(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			DataDir: homeDir,
		},
		Server: ServerConfig{
			APIPort:  8080,
			BindAddr: "127.0.0.1",
		},
		configPath: filepath.Join(homeDir, "config.toml"),
	}
}

// Load reads the configuration. An explicit path must exist, and relative
// paths inside it resolve against its directory, which also becomes the home
// directory. Otherwise config.toml is read from homeDir (or DefaultHome when
// homeDir is empty) if present.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	if explicit {
		path = expandPath(path)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		homeDir = filepath.Dir(path)
	} else {
		if homeDir == "" {
			homeDir = DefaultHome()
		} else {
			homeDir = expandPath(homeDir)
		}
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := newConfig(homeDir)
	cfg.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, decodeError(err)
	}

	cfg.Data.DataDir = resolvePath(cfg.Data.DataDir, homeDir)
	cfg.Data.ExportDir = resolvePath(cfg.Data.ExportDir, homeDir)
	cfg.IMessage.DatabasePath = resolvePath(cfg.IMessage.DatabasePath, homeDir)
	cfg.IMessage.AddressBookDir = resolvePath(cfg.IMessage.AddressBookDir, homeDir)
	return cfg, nil
}

// decodeError adds a hint for the most common TOML mistake: Windows-style
// backslashes inside double-quoted strings.
func decodeError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "invalid escape") || strings.Contains(msg, "hexadecimal digits") {
		return fmt.Errorf("decode config: %w\n\nhint: use forward slashes in paths, or single quotes for literal strings", err)
	}
	return fmt.Errorf("decode config: %w", err)
}

// ConfigFilePath returns the path the configuration was (or would be) read from.
func (c *Config) ConfigFilePath() string {
	return c.configPath
}

// ExportDir returns the default directory for exports.
func (c *Config) ExportDir() string {
	if c.Data.ExportDir != "" {
		return c.Data.ExportDir
	}
	return filepath.Join(c.Data.DataDir, "exports")
}

// ChatDBPath returns the configured chat.db override, or "" for the default.
func (c *Config) ChatDBPath() string {
	return c.IMessage.DatabasePath
}

// AddressBookDir returns the configured AddressBook root override, or "" for
// the default.
func (c *Config) AddressBookDir() string {
	return c.IMessage.AddressBookDir
}

// resolvePath expands ~ and anchors relative paths at base.
func resolvePath(path, base string) string {
	if path == "" {
		return path
	}
	path = expandPath(path)
	if !filepath.IsAbs(path) {
		return filepath.Join(base, path)
	}
	return path
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
