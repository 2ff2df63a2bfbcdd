package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Default values
	DefaultPort          = 8080
	DefaultHost          = "127.0.0.1"
	DefaultLogLevel      = "info"
	DefaultMaxUploadSize = 50 * 1024 * 1024 // 50MB
	DefaultScale         = 1.5
	DefaultVaultTTL      = 3 * time.Hour
	DefaultSweepInterval = time.Hour

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF stamping service
type Config struct {
	// Server configuration
	Host string
	Port int

	// Storage configuration
	DataDirectory string // root for the template database and vault files
	ProfilePath   string // company profile JSON document

	// Rendering configuration
	Scale         float64 // editor zoom factor, must match the editing UI
	MaxUploadSize int64   // maximum uploaded PDF size in bytes

	// Vault configuration
	VaultTTL      time.Duration
	SweepInterval time.Duration
	SigningSecret string // signs vault download links

	// Analyzer configuration
	AnalyzerEndpoint string // external OCR service; empty disables analysis
	ContentDetection bool   // match uploads against templates by extracted text

	// Application configuration
	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		DataDirectory: filepath.Join(currentDir, "data"),
		ProfilePath:   filepath.Join(currentDir, "profile.json"),
		Scale:         DefaultScale,
		MaxUploadSize: DefaultMaxUploadSize,
		VaultTTL:      DefaultVaultTTL,
		SweepInterval: DefaultSweepInterval,
		Version:       "1.0.0",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.DataDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.DataDirectory); err == nil {
			cfg.DataDirectory = expandedPath
		}
	}
	if cfg.ProfilePath != "" {
		if expandedPath, err := filepath.Abs(cfg.ProfilePath); err == nil {
			cfg.ProfilePath = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("PDF_STAMPER")
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("datadir", cfg.DataDirectory)
	viper.SetDefault("profile", cfg.ProfilePath)
	viper.SetDefault("scale", cfg.Scale)
	viper.SetDefault("maxuploadsize", cfg.MaxUploadSize)
	viper.SetDefault("vaultttl", cfg.VaultTTL)
	viper.SetDefault("sweepinterval", cfg.SweepInterval)
	viper.SetDefault("signingsecret", cfg.SigningSecret)
	viper.SetDefault("analyzer", cfg.AnalyzerEndpoint)
	viper.SetDefault("contentdetection", cfg.ContentDetection)
	viper.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("host", cfg.Host, "Server host address")
	pflag.Int("port", cfg.Port, "Server port")
	pflag.String("datadir", cfg.DataDirectory, "Directory for the template database and vault files")
	pflag.String("profile", cfg.ProfilePath, "Path to the company profile JSON document")
	pflag.Float64("scale", cfg.Scale, "Editor zoom factor, must match the editing UI")
	pflag.Int64("maxuploadsize", cfg.MaxUploadSize, "Maximum uploaded PDF size in bytes")
	pflag.Duration("vaultttl", cfg.VaultTTL, "How long vaulted documents stay downloadable")
	pflag.Duration("sweepinterval", cfg.SweepInterval, "How often expired vault entries are removed")
	pflag.String("signingsecret", cfg.SigningSecret, "Secret for signing vault download links")
	pflag.String("analyzer", cfg.AnalyzerEndpoint, "Document analyzer endpoint URL (empty disables analysis)")
	pflag.Bool("contentdetection", cfg.ContentDetection, "Match uploads against templates by extracted text")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"host", "port", "datadir", "profile", "scale", "maxuploadsize",
		"vaultttl", "sweepinterval", "signingsecret", "analyzer",
		"contentdetection", "loglevel",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Stamper - fills government tender forms from a company profile\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --datadir=/var/lib/pdf-stamper --profile=/etc/pdf-stamper/profile.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --host=0.0.0.0 --port=8081 --signingsecret=$SECRET\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_HOST              Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_PORT              Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_DATADIR           Data directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_PROFILE           Profile JSON path\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_SCALE             Editor zoom factor\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_MAXUPLOADSIZE     Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_VAULTTTL          Vault entry lifetime\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_SWEEPINTERVAL     Vault cleanup interval\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_SIGNINGSECRET     Download link signing secret\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_ANALYZER          Analyzer endpoint URL\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_CONTENTDETECTION  Content-based template matching\n")
		fmt.Fprintf(os.Stderr, "  PDF_STAMPER_LOGLEVEL          Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.DataDirectory = viper.GetString("datadir")
	cfg.ProfilePath = viper.GetString("profile")
	cfg.Scale = viper.GetFloat64("scale")
	cfg.MaxUploadSize = viper.GetInt64("maxuploadsize")
	cfg.VaultTTL = viper.GetDuration("vaultttl")
	cfg.SweepInterval = viper.GetDuration("sweepinterval")
	cfg.SigningSecret = viper.GetString("signingsecret")
	cfg.AnalyzerEndpoint = viper.GetString("analyzer")
	cfg.ContentDetection = viper.GetBool("contentdetection")
	cfg.LogLevel = viper.GetString("loglevel")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if c.DataDirectory == "" {
		return errors.New("data directory cannot be empty")
	}

	// Check if the data directory exists, create if it doesn't
	if _, err := os.Stat(c.DataDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.DataDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create data directory %s: %w", c.DataDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access data directory %s: %w", c.DataDirectory, err)
	}

	if c.ProfilePath == "" {
		return errors.New("profile path cannot be empty")
	}

	if c.Scale <= 0 {
		return errors.New("scale must be positive")
	}

	if c.MaxUploadSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.VaultTTL <= 0 {
		return errors.New("vault TTL must be positive")
	}

	if c.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}

	if c.SigningSecret == "" {
		return errors.New("signing secret cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TemplateDSN returns the SQLite path for the template store
func (c *Config) TemplateDSN() string {
	return filepath.Join(c.DataDirectory, "templates.db")
}

// VaultDSN returns the SQLite path for the vault metadata
func (c *Config) VaultDSN() string {
	return filepath.Join(c.DataDirectory, "vault.db")
}

// VaultDirectory returns the directory holding vaulted files
func (c *Config) VaultDirectory() string {
	return filepath.Join(c.DataDirectory, "vault")
}

// AnalyzerEnabled returns true if an analyzer endpoint is configured
func (c *Config) AnalyzerEnabled() bool {
	return c.AnalyzerEndpoint != ""
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Host: %s, Port: %d, DataDirectory: %s, ProfilePath: %s, Scale: %g, LogLevel: %s}",
		c.Host, c.Port, c.DataDirectory, c.ProfilePath, c.Scale, c.LogLevel)
}
