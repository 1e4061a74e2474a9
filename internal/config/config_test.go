package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Joining {
		t.Error("expected joining enabled by default")
	}
	if cfg.Storage.Driver != "disk" {
		t.Errorf("expected disk storage by default, got %q", cfg.Storage.Driver)
	}
	if cfg.Feed.Enabled {
		t.Error("expected feed disabled by default")
	}
	if cfg.WebSocket.MaxMessageSize != 4096 {
		t.Errorf("expected max message size 4096, got %d", cfg.WebSocket.MaxMessageSize)
	}
	if got := cfg.Storage.Postgres.ConnMaxLifetime().Minutes(); got != 5 {
		t.Errorf("expected 5 minute connection lifetime, got %v", got)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/server.yaml")
	if err != nil {
		t.Errorf("expected no error for missing file, got %v", err)
	}
	if cfg == nil || cfg.Mode != "default" {
		t.Fatalf("expected default config for missing file, got %+v", cfg)
	}
}

func TestLoadConfig_ValidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "server.yaml")

	content := `
joining: false
mode: hardcore
storage:
  driver: sqlite
  sqlite_path: /tmp/ip.db
schematics:
  fetch_url: "git::https://example.com/schematics.git"
feed:
  enabled: true
  address: ":9000"
websocket:
  allowed_origins:
    - "https://example.com"
  max_message_size: 8192
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Joining {
		t.Error("expected joining disabled")
	}
	if cfg.Mode != "hardcore" {
		t.Errorf("expected mode hardcore, got %q", cfg.Mode)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.SQLitePath != "/tmp/ip.db" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
	if cfg.Storage.Postgres.Port != 5432 {
		t.Errorf("expected postgres defaults kept, got port %d", cfg.Storage.Postgres.Port)
	}
	if cfg.Schematics.Spawn != "spawn-island" {
		t.Errorf("expected default spawn schematic kept, got %q", cfg.Schematics.Spawn)
	}
	if !cfg.Feed.Enabled || cfg.Feed.Address != ":9000" || cfg.Feed.TopSize != 10 {
		t.Errorf("unexpected feed config %+v", cfg.Feed)
	}
	if len(cfg.WebSocket.AllowedOrigins) != 1 || cfg.WebSocket.MaxMessageSize != 8192 {
		t.Errorf("unexpected websocket config %+v", cfg.WebSocket)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "server.yaml")
	if err := os.WriteFile(configPath, []byte("storage: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configPath)
	if err == nil {
		t.Error("expected parse error")
	}
	if cfg == nil || cfg.Storage.Driver != "disk" {
		t.Error("expected defaults returned alongside parse error")
	}
}

func TestIsOriginAllowed_EmptyList_SameOrigin(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{},
	}

	// Same origin (no Origin header)
	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected empty origin to be allowed (same-origin)")
	}

	// Same origin (matching host)
	if !cfg.IsOriginAllowed("http://localhost:4000", "localhost:4000") {
		t.Error("expected matching origin to be allowed (same-origin)")
	}

	// Different origin should be rejected
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected different origin to be rejected (same-origin policy)")
	}
}

func TestIsOriginAllowed_Wildcard(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{"*"},
	}

	// Wildcard allows everything
	if !cfg.IsOriginAllowed("http://anything.com", "localhost:4000") {
		t.Error("expected wildcard to allow any origin")
	}

	if !cfg.IsOriginAllowed("", "localhost:4000") {
		t.Error("expected wildcard to allow empty origin")
	}
}

func TestIsOriginAllowed_ExactMatch(t *testing.T) {
	cfg := WebSocketConfig{
		AllowedOrigins: []string{
			"https://example.com",
			"http://localhost:3000",
		},
	}

	// Exact matches
	if !cfg.IsOriginAllowed("https://example.com", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}

	if !cfg.IsOriginAllowed("http://localhost:3000", "localhost:4000") {
		t.Error("expected exact match to be allowed")
	}

	// Non-matching origin
	if cfg.IsOriginAllowed("http://evil.com", "localhost:4000") {
		t.Error("expected non-matching origin to be rejected")
	}

	// Partial match should not work
	if cfg.IsOriginAllowed("https://example.com:8080", "localhost:4000") {
		t.Error("expected partial match to be rejected")
	}
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin      string
		requestHost string
		expected    bool
	}{
		{"", "localhost:4000", true},                       // No origin header
		{"http://localhost:4000", "localhost:4000", true},  // HTTP match
		{"https://localhost:4000", "localhost:4000", true}, // HTTPS match
		{"http://localhost:4000/", "localhost:4000", true}, // Trailing slash
		{"http://example.com", "localhost:4000", false},    // Different host
		{"http://localhost:3000", "localhost:4000", false}, // Different port
		{"ws://localhost:4000", "localhost:4000", true},    // WebSocket scheme
	}

	for _, tt := range tests {
		result := isSameOrigin(tt.origin, tt.requestHost)
		if result != tt.expected {
			t.Errorf("isSameOrigin(%q, %q) = %v, want %v",
				tt.origin, tt.requestHost, result, tt.expected)
		}
	}
}
