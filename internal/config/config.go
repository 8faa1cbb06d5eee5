package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the importer.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Storage StorageConfig `mapstructure:"storage"`
	Import  ImportConfig  `mapstructure:"import"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// HTTPConfig holds settings for outbound requests against the legacy site.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Retries        int    `mapstructure:"retries"`
	RetryDelayMS   int    `mapstructure:"retry_delay_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// StorageConfig holds blob-storage configuration. Root is the on-disk
// directory backing the store; PublicPrefix is prepended to stored paths
// when they are written back into page content.
type StorageConfig struct {
	Root         string `mapstructure:"root"`
	PublicPrefix string `mapstructure:"public_prefix"`
}

// ImportConfig holds defaults shared by the import commands.
type ImportConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	ImageDir string `mapstructure:"image_dir"`
	FileDir  string `mapstructure:"file_dir"`
}

// CacheConfig holds configuration for the cross-run page fetch cache.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	FilePath string `mapstructure:"file_path"`
	TTLHours int    `mapstructure:"ttl_hours"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("db.dsn", "importer:importer@tcp(127.0.0.1:3306)/importer?parseTime=true")
	viper.SetDefault("http.timeout_seconds", 30)
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("http.retry_delay_ms", 500)
	viper.SetDefault("http.user_agent", "go-site-importer/1.0")
	viper.SetDefault("storage.root", "storage/app/public")
	viper.SetDefault("storage.public_prefix", "/storage")
	viper.SetDefault("import.image_dir", "images/imported")
	viper.SetDefault("import.file_dir", "files/imported")
	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.file_path", "fetch-cache.db")
	viper.SetDefault("cache.ttl_hours", 24)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	// Set up viper to read from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/go-site-importer/")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	viper.SetEnvPrefix("IMPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
