package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/musclegraph/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFile)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
catalog = "catalog.yaml"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "1h"

[layout]
level_width = 100.0
node_height = 20.0

[server]
addr = ":9090"
`)
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(filepath.Dir(path), "catalog.yaml"); cfg.Catalog != want {
		t.Errorf("Catalog = %q, want %q", cfg.Catalog, want)
	}
	if cfg.Cache.Backend != cacheBackendRedis || cfg.Cache.ttl() != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Layout.LevelWidth != 100 || cfg.Layout.NodeHeight != 20 {
		t.Errorf("Layout = %+v", cfg.Layout)
	}
	if cfg.addr() != ":9090" {
		t.Errorf("addr = %q", cfg.addr())
	}
}

func TestLoadConfigKeepsURLs(t *testing.T) {
	for _, loc := range []string{"sqlite:///var/lib/catalog.db", "mongodb://localhost:27017/musclegraph"} {
		cfg, err := loadConfig(writeConfig(t, `catalog = "`+loc+`"`))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Catalog != loc {
			t.Errorf("Catalog = %q, want %q unchanged", cfg.Catalog, loc)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if cfg.Catalog != "" || cfg.addr() != defaultAddr {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"syntax", `catalog = `, errors.ErrCodeInvalidFormat},
		{"unknown key", `catalogue = "x.yaml"`, errors.ErrCodeInvalidFormat},
		{"bad backend", "[cache]\nbackend = \"memcached\"", errors.ErrCodeInvalidInput},
		{"redis without url", "[cache]\nbackend = \"redis\"", errors.ErrCodeInvalidInput},
		{"bad ttl", "[cache]\nttl = \"soon\"", errors.ErrCodeInvalidInput},
		{"negative spacing", "[layout]\nlevel_width = -1.0", errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if errors.GetCode(err) != errors.ErrCodeInvalidPath {
		t.Errorf("explicit missing config: err = %v", err)
	}
}
