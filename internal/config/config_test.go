package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORTAL_LISTEN_PORT", "PORTAL_CADDY_ADMIN_URL", "PORTAL_CADDY_SERVER",
		"PORTAL_CADDY_TLS_POLICY", "PORTAL_CADDY_TIMEOUT", "PORTAL_ROUTES_FILE",
		"PORTAL_REDIS_ADDR", "PORTAL_ALLOWED_CIDRS", "PORTAL_TRUST_PROXY", "PORTAL_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q, want :8080", cfg.ListenPort)
	}
	if cfg.CaddyAdminURL != "http://127.0.0.1:2019" {
		t.Errorf("CaddyAdminURL = %q", cfg.CaddyAdminURL)
	}
	if cfg.CaddyServer != "srv0" || cfg.CaddyTLSPolicy != 0 {
		t.Errorf("CaddyServer/TLSPolicy = %q/%d, want srv0/0", cfg.CaddyServer, cfg.CaddyTLSPolicy)
	}
	if cfg.CaddyTimeout != 10*time.Second {
		t.Errorf("CaddyTimeout = %v, want 10s", cfg.CaddyTimeout)
	}
	if cfg.LedgerEnabled() {
		t.Error("ledger should be disabled without PORTAL_REDIS_ADDR")
	}
	if cfg.AllowedCIDRS != nil {
		t.Errorf("AllowedCIDRS = %v, want nil", cfg.AllowedCIDRS)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORTAL_CADDY_ADMIN_URL", "http://caddy:2019/")
	t.Setenv("PORTAL_CADDY_SERVER", "edge")
	t.Setenv("PORTAL_CADDY_TLS_POLICY", "1")
	t.Setenv("PORTAL_ROUTES_FILE", "/etc/portal/routes.yaml")
	t.Setenv("PORTAL_RELOAD_INTERVAL", "30s")
	t.Setenv("PORTAL_REDIS_ADDR", "redis:6379")
	t.Setenv("PORTAL_ALLOWED_CIDRS", `"10.0.0.0/8", 192.168.1.1`)

	cfg := Load()

	if cfg.CaddyAdminURL != "http://caddy:2019" {
		t.Errorf("CaddyAdminURL = %q, trailing slash should be trimmed", cfg.CaddyAdminURL)
	}
	if cfg.CaddyServer != "edge" || cfg.CaddyTLSPolicy != 1 {
		t.Errorf("CaddyServer/TLSPolicy = %q/%d", cfg.CaddyServer, cfg.CaddyTLSPolicy)
	}
	if cfg.RoutesFile != "/etc/portal/routes.yaml" || cfg.ReloadInterval != 30*time.Second {
		t.Errorf("RoutesFile/ReloadInterval = %q/%v", cfg.RoutesFile, cfg.ReloadInterval)
	}
	if !cfg.LedgerEnabled() {
		t.Error("ledger should be enabled with PORTAL_REDIS_ADDR set")
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[0] != "10.0.0.0/8" || cfg.AllowedCIDRS[1] != "192.168.1.1" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "admin url without scheme",
			env:  map[string]string{"PORTAL_CADDY_ADMIN_URL": "127.0.0.1:2019"},
		},
		{
			name: "negative tls policy",
			env:  map[string]string{"PORTAL_CADDY_TLS_POLICY": "-1"},
		},
		{
			name: "routes file with zero interval",
			env:  map[string]string{"PORTAL_ROUTES_FILE": "routes.yaml", "PORTAL_RELOAD_INTERVAL": "0s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "5s", time.Second, 5 * time.Second},
		{"invalid duration uses default", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := mustDuration("TEST_DURATION", tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"invalid value uses default", "invalid", true, true},
		{"missing variable uses default", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.value)
			if got := mustBool("TEST_BOOL", tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := getenvInt("TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	t.Setenv("TEST_INT", "forty-two")
	if got := getenvInt("TEST_INT", 1); got != 1 {
		t.Errorf("getenvInt() with invalid value = %d, want default 1", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` a , 'b',, "c" `)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if splitAndTrim("") != nil {
		t.Error("splitAndTrim(\"\") should be nil")
	}
}
