package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("IMSGVAULT_HOME", tmpDir)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.Server.APIPort != 8080 {
		t.Errorf("Server.APIPort = %d, want 8080", cfg.Server.APIPort)
	}
	if cfg.Server.BindAddr != "127.0.0.1" {
		t.Errorf("Server.BindAddr = %q", cfg.Server.BindAddr)
	}
	if cfg.ChatDBPath() != "" || cfg.AddressBookDir() != "" {
		t.Errorf("store overrides should default to empty, got %q / %q", cfg.ChatDBPath(), cfg.AddressBookDir())
	}
	if want := filepath.Join(tmpDir, "exports"); cfg.ExportDir() != want {
		t.Errorf("ExportDir() = %q, want %q", cfg.ExportDir(), want)
	}
	if want := filepath.Join(tmpDir, "config.toml"); cfg.ConfigFilePath() != want {
		t.Errorf("ConfigFilePath() = %q, want %q", cfg.ConfigFilePath(), want)
	}
}

func TestLoadFromHome(t *testing.T) {
	homeDir := t.TempDir()
	writeConfig(t, homeDir, `
[imessage]
database_path = "/Volumes/Backup/chat.db"
addressbook_dir = "contacts"

[data]
export_dir = "out"

[server]
api_port = 9090
api_key = "test-secret-key"
cors_origins = ["http://localhost:5173"]
`)

	cfg, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatDBPath() != "/Volumes/Backup/chat.db" {
		t.Errorf("ChatDBPath() = %q", cfg.ChatDBPath())
	}
	if want := filepath.Join(homeDir, "contacts"); cfg.AddressBookDir() != want {
		t.Errorf("AddressBookDir() = %q, want %q", cfg.AddressBookDir(), want)
	}
	if want := filepath.Join(homeDir, "out"); cfg.ExportDir() != want {
		t.Errorf("ExportDir() = %q, want %q", cfg.ExportDir(), want)
	}
	if cfg.Server.APIPort != 9090 || cfg.Server.APIKey != "test-secret-key" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "http://localhost:5173" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeConfig(t, tmpDir, "[data]\ndata_dir = \"data\"\n")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load(%q) error = %v", path, err)
	}
	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if want := filepath.Join(tmpDir, "data"); cfg.Data.DataDir != want {
		t.Errorf("DataDir = %q, want %q", cfg.Data.DataDir, want)
	}
	if cfg.ConfigFilePath() != path {
		t.Errorf("ConfigFilePath() = %q, want %q", cfg.ConfigFilePath(), path)
	}
}

func TestLoadExplicitPathNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml"), ""); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadBackslashErrorHint(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid escape", "[imessage]\ndatabase_path = \"C:\\Games\\chat.db\"\n"},
		{"unicode escape", "[imessage]\ndatabase_path = \"C:\\Users\\me\\chat.db\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			homeDir := t.TempDir()
			writeConfig(t, homeDir, tt.content)

			_, err := Load("", homeDir)
			if err == nil {
				t.Fatal("Load should fail on TOML backslash error")
			}
			for _, want := range []string{"hint:", "forward slashes", "single quotes"} {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should contain %q, got: %s", want, err)
				}
			}
		})
	}
}

func TestDefaultHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	t.Setenv("IMSGVAULT_HOME", "~/.imsgvault-test")
	if got, want := DefaultHome(), filepath.Join(home, ".imsgvault-test"); got != want {
		t.Errorf("DefaultHome() = %q, want %q", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/Library/Messages", filepath.Join(home, "Library/Messages")},
		{"~other/x", "~other/x"},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}
	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateSecure(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{"default loopback", ServerConfig{BindAddr: "127.0.0.1"}, false},
		{"empty bind", ServerConfig{}, false},
		{"localhost", ServerConfig{BindAddr: "localhost"}, false},
		{"ipv6 loopback", ServerConfig{BindAddr: "::1"}, false},
		{"all interfaces without key", ServerConfig{BindAddr: "0.0.0.0"}, true},
		{"all interfaces with key", ServerConfig{BindAddr: "0.0.0.0", APIKey: "k"}, false},
		{"all interfaces insecure", ServerConfig{BindAddr: "0.0.0.0", AllowInsecure: true}, false},
		{"lan host without key", ServerConfig{BindAddr: "192.168.1.10"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateSecure()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
