package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadDefaults verifies an empty path yields the defaults.
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want :3000", cfg.Addr)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}

// TestLoadFile verifies a toml file is parsed and defaults fill gaps.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nearby.toml")
	data := `
cors_origins = ["http://localhost:8080"]
redis_url = "redis://localhost:6379/0"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Addr != ":3000" {
		t.Errorf("Addr = %q, want default :3000", cfg.Addr)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:8080" {
		t.Errorf("CorsOrigins = %v", cfg.CorsOrigins)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
}

// TestLoadErrors covers missing and malformed files.
func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("addr = [broken"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed toml")
	}

	// an explicitly blank addr fails validation rather than being
	// silently re-defaulted
	path = filepath.Join(t.TempDir(), "blank.toml")
	os.WriteFile(path, []byte(`addr = ""`), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for blank addr")
	}
}

// TestValidate checks the validation rules.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"Valid", Config{Addr: ":3000"}, false},
		{"Blank addr", Config{Addr: "  "}, true},
		{"Empty origin entry", Config{Addr: ":3000", CorsOrigins: []string{""}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
