package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// DefaultJWTSecret is used when no secret is configured. Never deploy with it.
const DefaultJWTSecret = "dev-secret-change-me"

const DefaultDiscordAPIBase = "https://discord.com/api"

// ---------- Config (from env) ----------

// Configuration is built once at startup and handed to every component.
// Keys match the lower-cased environment variable names.
type Configuration struct {
	Port int `koanf:"port"`

	JWTSecret string        `koanf:"jwt_secret"`
	SecretKey string        `koanf:"secret_key"`
	TokenTTL  time.Duration `koanf:"token_ttl"`

	DiscordClientID     string        `koanf:"discord_client_id"`
	DiscordClientSecret string        `koanf:"discord_client_secret"`
	DiscordRedirectURI  string        `koanf:"discord_redirect_uri"` // e.g. https://yourdomain.com/callback
	DiscordGuildID      string        `koanf:"discord_guild_id"`
	DiscordAPIBase      string        `koanf:"discord_api_base"`
	HTTPTimeout         time.Duration `koanf:"http_timeout"`
	GuildCheckFailOpen  bool          `koanf:"guild_check_fail_open"`

	DatabaseURL  string `koanf:"database_url"` // e.g. a Postgres URL; empty selects SQLite
	DatabasePath string `koanf:"database_path"`

	AdminUsernames     []string `koanf:"admin_usernames"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
	AuthRateLimit      int      `koanf:"auth_rate_limit"`
	StaticDir          string   `koanf:"static_dir"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaultConfiguration() *Configuration {
	return &Configuration{
		Port:               5000,
		TokenTTL:           7 * 24 * time.Hour,
		DiscordAPIBase:     DefaultDiscordAPIBase,
		HTTPTimeout:        10 * time.Second,
		GuildCheckFailOpen: true,
		DatabasePath:       "map_pins.db",
		AdminUsernames:     []string{"RandMiester"},
		CORSAllowedOrigins: []string{"*"},
		AuthRateLimit:      20,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// ConfigPathEnvVar names an optional YAML file layered under the environment.
const ConfigPathEnvVar = "CONFIG_PATH"

// LoadConfiguration layers defaults, an optional YAML file and the environment.
func LoadConfiguration() (*Configuration, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfiguration(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, err
	}

	cfg := &Configuration{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envTransform lower-cases keys and drops empty variables so they do not
// clobber defaults.
func envTransform(key, value string) (string, interface{}) {
	if value == "" {
		return "", nil
	}
	return strings.ToLower(key), value
}

// listKeys arrive from the environment as comma separated strings.
var listKeys = []string{"admin_usernames", "cors_allowed_origins"}

func splitListFields(k *koanf.Koanf) error {
	for _, key := range listKeys {
		if v, ok := k.Get(key).(string); ok {
			if err := k.Set(key, strings.Split(v, ",")); err != nil {
				return fmt.Errorf("split %s: %w", key, err)
			}
		}
	}
	return nil
}

func findConfigFile() string {
	for _, path := range []string{os.Getenv(ConfigPathEnvVar), "config.yaml"} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (c *Configuration) normalize() {
	if c.JWTSecret == "" {
		c.JWTSecret = c.SecretKey
	}
	if c.JWTSecret == "" {
		c.JWTSecret = DefaultJWTSecret
	}
	c.DiscordAPIBase = strings.TrimRight(c.DiscordAPIBase, "/")
	c.AdminUsernames = trimList(c.AdminUsernames)
	c.CORSAllowedOrigins = trimList(c.CORSAllowedOrigins)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects values that would make the server misbehave.
// A missing Discord client id is not an error here: /login reports it instead.
func (c *Configuration) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http_timeout must be positive"))
	}
	if c.DatabaseURL == "" && c.DatabasePath == "" {
		errs = append(errs, errors.New("database_path must be set when database_url is empty"))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether tokens are signed with the built-in secret.
func (c *Configuration) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

// DiscordConfigured reports whether the OAuth flow can start.
func (c *Configuration) DiscordConfigured() bool {
	return c.DiscordClientID != ""
}

// OAuthConfig returns the OAuth2 config for Discord. Token requests go to
// DiscordAPIBase so tests can point the exchange at a fake server.
func (c *Configuration) OAuthConfig() *oauth2.Config {
	endpoint := endpoints.Discord
	if c.DiscordAPIBase != DefaultDiscordAPIBase {
		endpoint.TokenURL = c.DiscordAPIBase + "/oauth2/token"
	}
	return &oauth2.Config{
		ClientID:     c.DiscordClientID,
		ClientSecret: c.DiscordClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  c.DiscordRedirectURI,
		Scopes:       []string{"identify", "guilds"},
	}
}
