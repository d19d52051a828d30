// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `conf/.env` — dotenv values.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `AVERY_`, where `__` maps to “.”
     (e.g., `AVERY_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, the tree is unmarshalled into strongly-typed structs, given
defaults for the retry knobs, validated, enriched with the runtime root
path, and cached in an `atomic.Pointer` for lock-free reads.  `Reload()`
calls `Load()` again and swaps the pointer.

Secret references (`vault:` prefixed values) are NOT resolved here; boot
code calls `cfg.ResolveSecrets` once the Vault client is up.  That keeps
Load() usable in tests and on dev boxes without a Vault server.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights.
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/AveryQuinnMedia/avery-site/internal/vault"
)

var current atomic.Pointer[Config]

// Retry policy defaults; overridable in global.yaml or env.
const (
	defaultMaxRetries       = 3
	defaultRetryWindowHours = 24
	defaultRetryBatchCap    = 50
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves AVERY_ROOT or climbs directories until conf/global.yaml
// is found.  Falls back to the executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("AVERY_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, applies defaults, validates, and
// caches the Config.
func Load() (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: AVERY_EMAIL__MAX_RETRIES → email.max_retries.  The
	// callback receives the full variable name, so the prefix must be
	// stripped here or the key never matches the config tree.
	if err := k.Load(env.Provider("AVERY_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "AVERY_")
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	if cfg.Email.MaxRetries == 0 {
		cfg.Email.MaxRetries = defaultMaxRetries
	}
	if cfg.Email.RetryWindowHours == 0 {
		cfg.Email.RetryWindowHours = defaultRetryWindowHours
	}
	if cfg.Email.RetryBatchCap == 0 {
		cfg.Email.RetryBatchCap = defaultRetryBatchCap
	}

	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"base_url", cfg.Site.BaseURL,
		"max_retries", cfg.Email.MaxRetries,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── secret resolution ───────────────────────────*/

// ResolveSecrets replaces every `vault:` reference in the secret-bearing
// fields with the value fetched through cli.  Call once during boot, after
// the Vault client is constructed.
func (c *Config) ResolveSecrets(ctx context.Context, cli *vault.Client) error {
	fields := []*string{
		&c.Database.DSN,
		&c.Email.APIKey,
		&c.Email.AdminKey,
	}
	for _, f := range fields {
		val, err := cli.ResolveRef(ctx, *f)
		if err != nil {
			return err
		}
		*f = val
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
