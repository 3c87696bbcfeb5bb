// Package config resolves service settings from flags, CONTACT_* environment
// variables, an optional config.{yaml,yml,json,toml} file and defaults, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every environment variable (CONTACT_HTTP_PORT, ...).
const EnvPrefix = "CONTACT"

// HTTPConfig holds listener ports and server timeouts.
type HTTPConfig struct {
	HTTPPort  int
	HTTPSPort int
	UseHTTPS  bool

	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// TLSConfig selects manual certificates or Let's Encrypt (http-01 on :80).
type TLSConfig struct {
	CertFile            string
	KeyFile             string
	UseLetsEncrypt      bool
	LetsEncryptEmail    string
	LetsEncryptCacheDir string
	Domain              string
}

// CORSConfig applies to the JSON API only.
type CORSConfig struct {
	EnableCORS           bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// CoreConfig is the part of the configuration every deployment shares.
type CoreConfig struct {
	Env      string // "dev" | "prod"
	LogLevel string

	HTTP HTTPConfig
	TLS  TLSConfig
	CORS CORSConfig

	// MaxRequestBodyBytes caps request bodies; 0 disables the cap.
	MaxRequestBodyBytes int64
	EnableCompression   bool
}

// coreKeys back CoreConfig. App keys may not reuse these names.
var coreKeys = []AppKey{
	{Name: "env", Default: "dev", Desc: `Runtime environment "dev" or "prod"`},
	{Name: "log_level", Default: "info", Desc: "Log level (debug, info, warn, error)"},

	{Name: "http_port", Default: 8080, Desc: "HTTP port"},
	{Name: "https_port", Default: 443, Desc: "HTTPS port"},
	{Name: "use_https", Default: false, Desc: "Serve HTTPS"},
	{Name: "cert_file", Default: "", Desc: "TLS certificate file (manual TLS)"},
	{Name: "key_file", Default: "", Desc: "TLS key file (manual TLS)"},
	{Name: "use_lets_encrypt", Default: false, Desc: "Obtain certificates from Let's Encrypt (http-01)"},
	{Name: "lets_encrypt_email", Default: "", Desc: "ACME account email"},
	{Name: "lets_encrypt_cache_dir", Default: "letsencrypt-cache", Desc: "ACME certificate cache directory"},
	{Name: "domain", Default: "", Desc: "Domain served over TLS"},

	{Name: "read_timeout", Default: 15 * time.Second, Desc: "Server read timeout"},
	{Name: "read_header_timeout", Default: 5 * time.Second, Desc: "Server read-header timeout"},
	{Name: "write_timeout", Default: 60 * time.Second, Desc: "Server write timeout"},
	{Name: "idle_timeout", Default: 120 * time.Second, Desc: "Server idle timeout"},
	{Name: "shutdown_timeout", Default: 15 * time.Second, Desc: "Graceful shutdown window"},

	// A contact message is at most a few KB; 64 KiB leaves room for encoding.
	{Name: "max_request_body_bytes", Default: int64(64 << 10), Desc: "Max request body in bytes (0 = unlimited)"},
	{Name: "enable_compression", Default: true, Desc: "Compress HTML and JSON responses"},

	{Name: "enable_cors", Default: false, Desc: "Enable CORS on /api/contact"},
	{Name: "cors_allowed_origins", Default: []string{}, Desc: "CORS allowed origins"},
	{Name: "cors_allowed_methods", Default: []string{}, Desc: "CORS allowed methods"},
	{Name: "cors_allowed_headers", Default: []string{}, Desc: "CORS allowed headers"},
	{Name: "cors_exposed_headers", Default: []string{}, Desc: "CORS exposed headers"},
	{Name: "cors_allow_credentials", Default: false, Desc: "CORS allow credentials"},
	{Name: "cors_max_age", Default: 0, Desc: "CORS preflight cache seconds (0 disables)"},
}

// Load resolves the core config and the given app keys from the process
// command line and environment.
func Load(logger *zap.Logger, keys ...AppKey) (*CoreConfig, AppConfigValues, error) {
	return load(logger, pflag.CommandLine, os.Args[1:], keys)
}

func load(logger *zap.Logger, fs *pflag.FlagSet, args []string, appKeys []AppKey) (*CoreConfig, AppConfigValues, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Real environment variables win over .env entries.
	if err := godotenv.Load(); err == nil {
		logger.Info("loaded .env file")
	}

	if err := registerFlags(fs, coreKeys); err != nil {
		return nil, nil, err
	}
	if err := registerFlags(fs, appKeys); err != nil {
		return nil, nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parse flags: %w", err)
	}

	v, err := newViper(logger)
	if err != nil {
		return nil, nil, err
	}

	all := make([]AppKey, 0, len(coreKeys)+len(appKeys))
	all = append(append(all, coreKeys...), appKeys...)
	vals, err := resolve(v, fs, all)
	if err != nil {
		return nil, nil, err
	}

	cfg := coreFrom(vals)
	if err := validateCoreConfig(cfg); err != nil {
		return nil, nil, err
	}
	logger.Info("core config loaded",
		zap.String("env", cfg.Env),
		zap.Int("http_port", cfg.HTTP.HTTPPort),
		zap.Bool("use_https", cfg.HTTP.UseHTTPS),
		zap.Bool("use_lets_encrypt", cfg.TLS.UseLetsEncrypt),
		zap.Bool("enable_cors", cfg.CORS.EnableCORS))

	app := make(AppConfigValues, len(appKeys))
	for _, k := range appKeys {
		app[k.Name] = vals[k.Name]
	}
	if len(appKeys) > 0 {
		logger.Info("app config loaded", redacted(appKeys, app)...)
	}
	return &cfg, app, nil
}

// newViper returns a viper bound to CONTACT_* variables, with ./config.* read
// if present. A present but unreadable file is an error.
func newViper(logger *zap.Logger) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	logger.Info("loaded config file", zap.String("file", v.ConfigFileUsed()))
	return v, nil
}

func coreFrom(vals AppConfigValues) CoreConfig {
	str := func(k string) string { return strings.TrimSpace(vals.String(k)) }
	return CoreConfig{
		Env:      strings.ToLower(str("env")),
		LogLevel: str("log_level"),
		HTTP: HTTPConfig{
			HTTPPort:          vals.Int("http_port"),
			HTTPSPort:         vals.Int("https_port"),
			UseHTTPS:          vals.Bool("use_https"),
			ReadTimeout:       vals.Duration("read_timeout", 0),
			ReadHeaderTimeout: vals.Duration("read_header_timeout", 0),
			WriteTimeout:      vals.Duration("write_timeout", 0),
			IdleTimeout:       vals.Duration("idle_timeout", 0),
			ShutdownTimeout:   vals.Duration("shutdown_timeout", 0),
		},
		TLS: TLSConfig{
			CertFile:            str("cert_file"),
			KeyFile:             str("key_file"),
			UseLetsEncrypt:      vals.Bool("use_lets_encrypt"),
			LetsEncryptEmail:    str("lets_encrypt_email"),
			LetsEncryptCacheDir: str("lets_encrypt_cache_dir"),
			Domain:              str("domain"),
		},
		CORS: CORSConfig{
			EnableCORS:           vals.Bool("enable_cors"),
			CORSAllowedOrigins:   vals.StringSlice("cors_allowed_origins"),
			CORSAllowedMethods:   vals.StringSlice("cors_allowed_methods"),
			CORSAllowedHeaders:   vals.StringSlice("cors_allowed_headers"),
			CORSExposedHeaders:   vals.StringSlice("cors_exposed_headers"),
			CORSAllowCredentials: vals.Bool("cors_allow_credentials"),
			CORSMaxAge:           vals.Int("cors_max_age"),
		},
		MaxRequestBodyBytes: vals.Int64("max_request_body_bytes"),
		EnableCompression:   vals.Bool("enable_compression"),
	}
}

// validateCoreConfig reports every inconsistency in one error.
func validateCoreConfig(c CoreConfig) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}
	port := func(name string, p int) {
		if p < 1 || p > 65535 {
			add("%s must be in 1..65535", name)
		}
	}

	if c.Env != "dev" && c.Env != "prod" {
		add(`env must be "dev" or "prod", got %q`, c.Env)
	}
	port("http_port", c.HTTP.HTTPPort)

	if c.HTTP.UseHTTPS {
		port("https_port", c.HTTP.HTTPSPort)
		if c.HTTP.HTTPSPort == c.HTTP.HTTPPort {
			add("https_port must differ from http_port")
		}
		if c.HTTP.HTTPSPort == 80 {
			add("https_port cannot be 80; the redirect and ACME listener uses it")
		}
	}

	switch {
	case c.TLS.UseLetsEncrypt:
		if !c.HTTP.UseHTTPS {
			add("use_lets_encrypt requires use_https")
		}
		if c.TLS.CertFile != "" || c.TLS.KeyFile != "" {
			add("use_lets_encrypt cannot be combined with cert_file/key_file")
		}
		if c.TLS.Domain == "" {
			add("use_lets_encrypt requires domain (%s_DOMAIN)", EnvPrefix)
		}
		if !strings.Contains(c.TLS.LetsEncryptEmail, "@") {
			add("use_lets_encrypt requires lets_encrypt_email (%s_LETS_ENCRYPT_EMAIL)", EnvPrefix)
		}
	case c.HTTP.UseHTTPS:
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			add("use_https requires %s_CERT_FILE and %s_KEY_FILE, or use_lets_encrypt", EnvPrefix, EnvPrefix)
		}
	}

	if c.CORS.EnableCORS {
		if len(c.CORS.CORSAllowedOrigins) == 0 || len(c.CORS.CORSAllowedMethods) == 0 {
			add("enable_cors requires cors_allowed_origins and cors_allowed_methods")
		}
		if c.CORS.CORSAllowCredentials {
			for _, o := range c.CORS.CORSAllowedOrigins {
				if o == "*" {
					add(`cors_allowed_origins cannot use "*" with cors_allow_credentials`)
					break
				}
			}
		}
		if c.CORS.CORSMaxAge < 0 {
			add("cors_max_age must be >= 0")
		}
	}

	if c.MaxRequestBodyBytes < 0 {
		add("max_request_body_bytes must be >= 0")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("core configuration errors: " + strings.Join(problems, "; "))
}
