package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Transport constants
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Auth type constants
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeAPIKey = "apikey"
)

// DefaultGuidePath is the guide document loaded when none is configured
const DefaultGuidePath = "math_study_guide.html"

// GuideSettings configuration for the guide document
type GuideSettings struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// SearchSettings configuration for the search widget
type SearchSettings struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	SnippetLength int           `mapstructure:"snippet_length"`
	PhraseBonus   string        `mapstructure:"phrase_bonus"` // per_term or once
	Matcher       string        `mapstructure:"matcher"`      // scan or bleve
}

// BasicAuthSettings credentials for HTTP basic authentication
type BasicAuthSettings struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// AuthSettings configuration for SSE endpoint authentication
type AuthSettings struct {
	Type    string            `mapstructure:"type"`
	Basic   BasicAuthSettings `mapstructure:"basic"`
	APIKeys []string          `mapstructure:"api_keys"`
}

// LogSettings configuration for logging
type LogSettings struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Settings application settings
type Settings struct {
	Transport string         `mapstructure:"transport"`
	Host      string         `mapstructure:"host"`
	Port      int            `mapstructure:"port"`
	Auth      AuthSettings   `mapstructure:"auth"`
	Guide     GuideSettings  `mapstructure:"guide"`
	Search    SearchSettings `mapstructure:"search"`
	Log       LogSettings    `mapstructure:"log"`
}

// flagKeys maps CLI flag names to setting keys
var flagKeys = map[string]string{
	"transport":           "transport",
	"host":                "host",
	"port":                "port",
	"auth-type":           "auth.type",
	"auth-basic-username": "auth.basic.username",
	"auth-basic-password": "auth.basic.password",
	"auth-api-keys":       "auth.api_keys",
	"guide":               "guide.path",
	"watch":               "guide.watch",
	"debounce":            "search.debounce",
	"snippet-length":      "search.snippet_length",
	"phrase-bonus":        "search.phrase_bonus",
	"matcher":             "search.matcher",
	"log-level":           "log.level",
	"log-file":            "log.file",
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("transport", TransportStdio)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("auth.type", AuthTypeNone)

	v.SetDefault("guide.path", DefaultGuidePath)
	v.SetDefault("guide.watch", false)

	v.SetDefault("search.debounce", 300*time.Millisecond)
	v.SetDefault("search.snippet_length", 100)
	v.SetDefault("search.phrase_bonus", "per_term")
	v.SetDefault("search.matcher", "scan")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	// Environment variables
	v.SetEnvPrefix("GUIDE_SEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	for _, key := range flagKeys {
		_ = v.BindEnv(key, "GUIDE_SEARCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// A comma separated env value arrives as a single element
	apiKeysEnv := os.Getenv("GUIDE_SEARCH_AUTH_API_KEYS")
	if apiKeysEnv != "" {
		if len(settings.Auth.APIKeys) == 0 || (len(settings.Auth.APIKeys) == 1 && strings.Contains(settings.Auth.APIKeys[0], ",")) {
			settings.Auth.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}
	keys := settings.Auth.APIKeys[:0]
	for _, k := range settings.Auth.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	settings.Auth.APIKeys = keys

	settings.Auth.Type = strings.ToLower(strings.TrimSpace(settings.Auth.Type))
	settings.Transport = strings.ToLower(strings.TrimSpace(settings.Transport))
	settings.Search.PhraseBonus = strings.ToLower(strings.TrimSpace(settings.Search.PhraseBonus))
	settings.Search.Matcher = strings.ToLower(strings.TrimSpace(settings.Search.Matcher))
	settings.Log.Level = strings.ToLower(strings.TrimSpace(settings.Log.Level))

	settings.Guide.Path = expandHomeDir(strings.TrimSpace(settings.Guide.Path))
	settings.Log.File = expandHomeDir(strings.TrimSpace(settings.Log.File))

	return &settings, nil
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks for invalid or conflicting configurations.
func ValidateSettings(s *Settings) error {
	// Validate transport type
	switch s.Transport {
	case TransportStdio, TransportSSE:
		// valid
	default:
		return errors.New("transport must be 'stdio' or 'sse', got: " + s.Transport)
	}

	if s.Transport == TransportSSE && (s.Port <= 0 || s.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if err := validateAuthSettings(&s.Auth); err != nil {
		return err
	}

	if s.Guide.Path == "" {
		return errors.New("guide path cannot be empty")
	}

	if err := validateSearchSettings(&s.Search); err != nil {
		return err
	}

	if _, err := ParseLevel(s.Log.Level); err != nil {
		return err
	}

	return nil
}

// validateAuthSettings rejects credentials that do not belong to the selected auth type
func validateAuthSettings(a *AuthSettings) error {
	hasBasic := a.Basic.Username != "" || a.Basic.Password != ""
	hasKeys := len(a.APIKeys) > 0

	switch a.Type {
	case "", AuthTypeNone:
		if hasBasic || hasKeys {
			return errors.New("auth-type 'none' is incompatible with auth credentials")
		}
	case AuthTypeBasic:
		if hasKeys {
			return errors.New("auth-type 'basic' is mutually exclusive with auth-api-keys")
		}
		if a.Basic.Username == "" || a.Basic.Password == "" {
			return errors.New("auth-type 'basic' requires both username and password")
		}
	case AuthTypeAPIKey:
		if hasBasic {
			return errors.New("auth-type 'apikey' is mutually exclusive with basic auth credentials")
		}
		if !hasKeys {
			return errors.New("auth-type 'apikey' requires at least one API key")
		}
	default:
		return errors.New("unknown auth-type: " + a.Type)
	}
	return nil
}

// validateSearchSettings validates the search widget configuration
func validateSearchSettings(s *SearchSettings) error {
	if s.Debounce < 0 {
		return errors.New("debounce cannot be negative")
	}

	if s.SnippetLength <= 0 {
		return errors.New("snippet-length must be positive")
	}

	switch s.PhraseBonus {
	case "", "per_term", "once":
		// valid
	default:
		return errors.New("phrase-bonus must be 'per_term' or 'once', got: " + s.PhraseBonus)
	}

	switch s.Matcher {
	case "", "scan", "bleve":
		// valid
	default:
		return errors.New("matcher must be 'scan' or 'bleve', got: " + s.Matcher)
	}

	return nil
}
