// Package config resolves the image and credentials paths plus the ambient
// runtime settings from defaults, a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Defaults used when nothing else is configured.
const (
	DefaultImagePath       = "img1.png"
	DefaultCredentialsPath = "secret.json"
	DefaultLogLevel        = "warn"
	DefaultTimeout         = 60 * time.Second
)

// Environment variables read by Load.
const (
	EnvImage       = "IMAGE_DESCRIBE_IMAGE"
	EnvCredentials = "IMAGE_DESCRIBE_CREDENTIALS"
	EnvLogLevel    = "IMAGE_DESCRIBE_LOG_LEVEL"
	EnvTimeout     = "IMAGE_DESCRIBE_TIMEOUT"

	// EnvGoogleCredentials is the standard Application Default Credentials
	// variable, used when the default credentials file is absent.
	EnvGoogleCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
)

// Config holds resolved settings.
type Config struct {
	ImagePath       string
	CredentialsPath string
	LogLevel        string
	Timeout         time.Duration

	// CredentialsSet records that CredentialsPath was given explicitly by
	// environment or flag rather than left at the default.
	CredentialsSet bool
}

// Default returns the configuration with only defaults applied.
func Default() Config {
	return Config{
		ImagePath:       DefaultImagePath,
		CredentialsPath: DefaultCredentialsPath,
		LogLevel:        DefaultLogLevel,
		Timeout:         DefaultTimeout,
	}
}

// Load loads the .env files (missing files are ignored) and applies
// environment overrides on top of the defaults.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv applies overrides from lookup on top of the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvImage); ok && v != "" {
		cfg.ImagePath = v
	}
	if v, ok := lookup(EnvCredentials); ok && v != "" {
		cfg.CredentialsPath = v
		cfg.CredentialsSet = true
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return cfg, nil
}

// ResolveCredentials returns the credentials file to use. When path was not
// set explicitly and the default file does not exist, an empty string is
// returned if GOOGLE_APPLICATION_CREDENTIALS is set so the client falls back
// to Application Default Credentials. Explicit paths are returned unchanged,
// even when they name the default file.
func ResolveCredentials(path string, explicit bool, lookup func(string) (string, bool)) string {
	if explicit || path != DefaultCredentialsPath {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if v, ok := lookup(EnvGoogleCredentials); ok && v != "" {
		return ""
	}
	return path
}

// NewLogger returns a logrus logger writing to stderr at the given level.
// stdout is reserved for results and the MCP protocol.
func NewLogger(level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
