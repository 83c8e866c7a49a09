// internal/config/model.go
//
// Typed configuration model for the contact-form service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `CONTACT_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// a value is out of range.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations accept Go syntax ("30m", "2h").
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gt=0"`
}

//
// Session section
//

// Session tunes the in-memory visitor store.
type Session struct {
	CookieName    string        `koanf:"cookie_name"    validate:"required,printascii"`
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gt=0"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gt=0"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"gt=0"`
}

//
// Form section
//

// Form holds the CSRF secret.  CSRFKey is base64url of at least 32 bytes
// (43 characters unpadded); it normally lives in
// Vault (`vault:secret/contactform#csrf_key`).  When empty, a random key
// is generated at start-up and tokens die with the process.
type Form struct {
	CSRFKey    string        `koanf:"csrf_key"     validate:"omitempty,min=43"`
	CSRFMaxAge time.Duration `koanf:"csrf_max_age" validate:"gt=0"`
}

//
// Geo and Log sections
//

// Geo points at an optional MaxMind GeoLite2-City database.
type Geo struct {
	DBPath string `koanf:"db_path" validate:"omitempty,file"`
}

// Log sets the minimum level for the file and console cores.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// Paths section
//

// Paths.Root is resolved at runtime (repo root or CONTACT_ROOT override).
// Templates optionally names a directory of template overrides laid out
// as <dir>/<component>/templates/*.html.
type Paths struct {
	Root      string `koanf:"-"`
	Templates string `koanf:"templates" validate:"omitempty,dir"`
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Session Session `koanf:"session"`
	Form    Form    `koanf:"form"`
	Geo     Geo     `koanf:"geo"`
	Log     Log     `koanf:"log"`
	Paths   Paths   `koanf:"paths"`
}

// Default returns the built-in configuration.  Loaded layers override it
// key by key.
func Default() Config {
	return Config{
		HTTP: HTTP{
			ListenAddr:   ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Session: Session{
			CookieName:    "contact_session",
			IdleTTL:       30 * time.Minute,
			MaxEntries:    10000,
			EvictInterval: time.Minute,
		},
		Form: Form{CSRFMaxAge: 2 * time.Hour},
		Log:  Log{Level: "info"},
	}
}
