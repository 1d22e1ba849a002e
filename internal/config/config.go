package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Output delivery modes.
const (
	OutputInline = "inline"
	OutputDisk   = "disk"
	OutputRedis  = "redis"
	OutputS3     = "s3"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	Server struct {
		Host         string        `yaml:"host"`
		Port         string        `yaml:"port"`
		Prefork      bool          `yaml:"prefork"`
		PublicDir    string        `yaml:"public_dir"`
		BodyLimitMB  int           `yaml:"body_limit_mb"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	Limits struct {
		MaxFileBytes int64 `yaml:"max_file_bytes"`
		MaxFiles     int   `yaml:"max_files"`
	} `yaml:"limits"`

	Upload struct {
		SpoolDir        string        `yaml:"spool_dir"`
		SpoolMaxAge     time.Duration `yaml:"spool_max_age"`
		JanitorInterval time.Duration `yaml:"janitor_interval"`
	} `yaml:"upload"`

	PDF struct {
		PageSize         string  `yaml:"page_size"`
		JPEGQuality      int     `yaml:"jpeg_quality"`
		MarginFactor     float64 `yaml:"margin_factor"`
		Workers          int     `yaml:"workers"`
		StrictValidation bool    `yaml:"strict_validation"`
	} `yaml:"pdf"`

	Output struct {
		Mode      string        `yaml:"mode"`
		Dir       string        `yaml:"dir"`
		URLPrefix string        `yaml:"url_prefix"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"output"`

	Cache struct {
		RedisHost   string `yaml:"redis_host"`
		RateLimitDB int    `yaml:"redis_rate_db"`
		OutputDB    int    `yaml:"redis_output_db"`
	} `yaml:"cache"`

	S3 struct {
		Bucket       string `yaml:"bucket"`
		Region       string `yaml:"region"`
		Endpoint     string `yaml:"endpoint"`
		AccessKey    string `yaml:"access_key"`
		SecretKey    string `yaml:"secret_key"`
		Prefix       string `yaml:"prefix"`
		UsePathStyle bool   `yaml:"use_path_style"`
	} `yaml:"s3"`

	RateLimiter struct {
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
		UserLimit         int           `yaml:"user_limit"`
		Interval          time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`
}

// Default returns the configuration used for every key the YAML file leaves out.
func Default() Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = ":3000"
	cfg.Server.BodyLimitMB = 200
	cfg.Server.ReadTimeout = 2 * time.Minute
	cfg.Server.WriteTimeout = 2 * time.Minute

	cfg.Limits.MaxFileBytes = 10 << 20

	cfg.Upload.SpoolMaxAge = time.Hour
	cfg.Upload.JanitorInterval = 10 * time.Minute

	cfg.PDF.PageSize = "Letter"
	cfg.PDF.JPEGQuality = 80
	cfg.PDF.MarginFactor = 0.9
	cfg.PDF.Workers = 1

	cfg.Output.Mode = OutputInline
	cfg.Output.Dir = "uploads"
	cfg.Output.URLPrefix = "/uploads"
	cfg.Output.Retention = 24 * time.Hour

	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.RateLimitDB = 0
	cfg.Cache.OutputDB = 1

	cfg.S3.Region = "us-east-1"

	cfg.RateLimiter.Interval = time.Minute

	cfg.Logger.File = "logs/pdfbatch.log"
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7
	return cfg
}

// Load reads the file named by CONFIG_PATH, or config.yaml when unset. A missing
// config.yaml yields the defaults; a missing CONFIG_PATH target panics.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(&cfg)
			mustValidate(cfg)
			return cfg
		}
		path = defaultConfigPath
	}
	return LoadFrom(path)
}

// LoadFrom reads path on top of the defaults and panics on unreadable or invalid configuration.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("read config %s: %v", path, err))
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("parse config %s: %v", path, err))
	}
	applyEnv(&cfg)
	mustValidate(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
	}
}

func mustValidate(cfg Config) {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
}

// Validate reports the first invalid value.
func (c Config) Validate() error {
	switch {
	case c.Limits.MaxFileBytes <= 0:
		return errors.New("limits.max_file_bytes must be positive")
	case c.Limits.MaxFiles < 0:
		return errors.New("limits.max_files must not be negative")
	case c.Server.BodyLimitMB <= 0:
		return errors.New("server.body_limit_mb must be positive")
	case c.PDF.JPEGQuality < 1 || c.PDF.JPEGQuality > 100:
		return fmt.Errorf("pdf.jpeg_quality %d outside 1..100", c.PDF.JPEGQuality)
	case c.PDF.MarginFactor <= 0 || c.PDF.MarginFactor > 1:
		return fmt.Errorf("pdf.margin_factor %v outside (0,1]", c.PDF.MarginFactor)
	case c.PDF.Workers < 0:
		return errors.New("pdf.workers must not be negative")
	case c.RateLimiter.UserLimit < 0:
		return errors.New("rate_limiter.user_limit must not be negative")
	case (c.RateLimiter.EnableUserLimiter || c.RateLimiter.UserLimit > 0) && c.RateLimiter.Interval <= 0:
		return errors.New("rate_limiter.interval must be positive")
	}

	switch c.Output.Mode {
	case OutputInline, OutputRedis:
	case OutputDisk:
		if c.Output.Dir == "" {
			return errors.New("output.dir is required for disk output")
		}
	case OutputS3:
		if c.S3.Bucket == "" {
			return errors.New("s3.bucket is required for s3 output")
		}
	default:
		return fmt.Errorf("unknown output.mode %q", c.Output.Mode)
	}
	if c.Output.Mode != OutputInline && c.Output.Retention < 0 {
		return errors.New("output.retention must not be negative")
	}
	return nil
}
