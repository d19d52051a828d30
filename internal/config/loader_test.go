// internal/config/loader_test.go
//
// Run: go test ./internal/config -v

package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `http:
  listen_addr: ":8080"
site:
  base_url: "https://averyquinn.com"
  title: "Avery Quinn"
database:
  dsn: "avery:pw@tcp(127.0.0.1:3306)/avery"
email:
  api_key: "re_test"
  from: "avery@averyquinn.com"
  notify_to: "inbox@averyquinn.com"
`

func writeGlobalYAML(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir conf: %v", err)
	}
	path := filepath.Join(root, "conf", "global.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write global.yaml: %v", err)
	}
	return root
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("AVERY_ROOT", writeGlobalYAML(t))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.Email.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want default %d", cfg.Email.MaxRetries, defaultMaxRetries)
	}
	if cfg.Email.RetryBatchCap != defaultRetryBatchCap {
		t.Errorf("RetryBatchCap = %d, want default %d", cfg.Email.RetryBatchCap, defaultRetryBatchCap)
	}
	if Get() != cfg {
		t.Error("Get() should return the freshly-loaded config")
	}
}

// An AVERY_-prefixed variable must override its YAML counterpart; the env
// callback strips the prefix before the key is matched against the tree.
func TestLoadEnvOverridesYAML(t *testing.T) {
	t.Setenv("AVERY_ROOT", writeGlobalYAML(t))
	t.Setenv("AVERY_HTTP__LISTEN_ADDR", ":9090")
	t.Setenv("AVERY_EMAIL__MAX_RETRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, env override lost", cfg.HTTP.ListenAddr)
	}
	if cfg.Email.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, env override lost", cfg.Email.MaxRetries)
	}
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir conf: %v", err)
	}
	bad := "http:\n  listen_addr: \":8080\"\n" // no site, database, or email
	if err := os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write global.yaml: %v", err)
	}
	t.Setenv("AVERY_ROOT", root)

	if _, err := Load(); err == nil {
		t.Fatal("expected a validation error for missing required fields")
	}
}
