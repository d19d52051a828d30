// internal/config/model.go
//
// Typed configuration model for the Avery Quinn site.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                    – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `AVERY_`-prefixed environment overrides – highest precedence.
//
// Any string value of the form `vault:<mount>/<path>#<key>` is a secret
// reference.  `Config.ResolveSecrets` swaps those references for the real
// values through the Vault client, so downstream code only ever sees plain
// strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"` — Koanf ignores yaml tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Site section
//

// Site carries brand-level values that pages and email templates render:
// the public base URL, the default <title>, and the default meta description.
type Site struct {
	BaseURL     string `koanf:"base_url" validate:"required,url"`
	Title       string `koanf:"title"    validate:"required"`
	Description string `koanf:"description"`
}

//
// Database section
//

// Database holds the backend DSN.  The DSN may embed a `vault:` reference
// for the password portion; see ResolveSecrets.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Email section
//

// Email configures the transactional provider and the retry policy.
//
// APIKey and AdminKey are usually `vault:` references in global.yaml so the
// flat file stays free of credentials.  AdminKey guards POST /api/email/retry;
// when it is empty the endpoint rejects every trigger.
type Email struct {
	APIKey           string `koanf:"api_key" validate:"required"`
	From             string `koanf:"from"    validate:"required"`
	ReplyTo          string `koanf:"reply_to"`
	NotifyTo         string `koanf:"notify_to" validate:"required"`
	AdminKey         string `koanf:"admin_key"`
	MaxRetries       int    `koanf:"max_retries"        validate:"gte=0"`
	RetryWindowHours int    `koanf:"retry_window_hours" validate:"gte=1"`
	RetryBatchCap    int    `koanf:"retry_batch_cap"    validate:"gte=1"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2-City database used to enrich lead rows
// with country and city.  An empty path disables the lookup.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers Root (repo root or AVERY_ROOT override) so later code can build
// absolute file paths for logs, templates, and form definitions.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Site     Site     `koanf:"site"`
	Database Database `koanf:"database"`
	Email    Email    `koanf:"email"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"`
}
