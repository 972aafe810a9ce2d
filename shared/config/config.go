package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Vision     VisionConfig     `yaml:"vision"`
	AI         AIConfig         `yaml:"ai"`
	Validator  ValidatorConfig  `yaml:"validator"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
	LogLevel   string           `yaml:"log_level"`
}

type VisionConfig struct {
	// APIKey authenticates Cloud Vision requests. When empty, Application
	// Default Credentials are used instead.
	APIKey    string `yaml:"api_key" env:"GOOGLE_VISION_API_KEY"`
	ProjectID string `yaml:"project_id" env:"GOOGLE_CLOUD_PROJECT"`
	// Endpoint overrides the API base URL, for tests.
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type AIConfig struct {
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type ValidatorConfig struct {
	// FramesDir is the frame sequence directory used by scheduled runs.
	FramesDir string `yaml:"frames_dir"`
	// OutputDir receives timestamped report files in scheduled runs.
	OutputDir string `yaml:"output_dir"`
	// CacheDir enables the on-disk feature cache when set.
	CacheDir         string `yaml:"cache_dir"`
	CacheMaxAgeHours int    `yaml:"cache_max_age_hours"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Load reads the yaml config file named by CONFIG_FILE (default
// "config.yaml") when it exists, then fills gaps from environment variables
// and defaults. A missing config file is not an error; the CLI can run on
// flags and environment alone.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	cfg.applyEnvFallbacks()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvFallbacks() {
	if c.Vision.APIKey == "" {
		c.Vision.APIKey = os.Getenv("GOOGLE_VISION_API_KEY")
	}
	if c.Vision.ProjectID == "" {
		c.Vision.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Vision.TimeoutSeconds == 0 {
		c.Vision.TimeoutSeconds = 30
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 60
	}
	if c.Validator.CacheMaxAgeHours == 0 {
		c.Validator.CacheMaxAgeHours = 24 * 7
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 9 * * *" // Daily at 9 AM
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.Vision.TimeoutSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Validator.CacheMaxAgeHours) * time.Hour
}
