package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration, read once from the environment at
// startup and treated as immutable afterwards.
type Config struct {
	AppName         string `mapstructure:"app_name"`
	AppEnv          string `mapstructure:"app_env"`
	LogLevel        string `mapstructure:"app_log_level"`
	Port            int    `mapstructure:"app_port"`
	ModelPath       string `mapstructure:"model_path"`
	ModelURL        string `mapstructure:"model_url"`
	OnnxRuntimeLib  string `mapstructure:"onnx_runtime_lib"`
	LabelsPath      string `mapstructure:"labels_path"`
	DatabaseURL     string `mapstructure:"database_url"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
	GalleryMaxLimit int    `mapstructure:"gallery_max_limit"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	bindEnvVars()
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("app_port must be between 1 and 65535, got %d", c.Port)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model_path must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.GalleryMaxLimit < 1 {
		return fmt.Errorf("gallery_max_limit must be at least 1, got %d", c.GalleryMaxLimit)
	}
	return nil
}

// IsProd reports whether the service runs with production settings.
func (c Config) IsProd() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}

func bindEnvVars() {
	// App configuration
	viper.BindEnv("app_name", "APP_NAME")
	viper.BindEnv("app_env", "APP_ENV")
	viper.BindEnv("app_log_level", "APP_LOG_LEVEL")
	viper.BindEnv("app_port", "APP_PORT")

	// Model configuration
	viper.BindEnv("model_path", "MODEL_PATH")
	viper.BindEnv("model_url", "MODEL_URL")
	viper.BindEnv("onnx_runtime_lib", "ONNX_RUNTIME_LIB")
	viper.BindEnv("labels_path", "LABELS_PATH")

	// Storage configuration
	viper.BindEnv("database_url", "DATABASE_URL")

	// Request limits
	viper.BindEnv("max_upload_bytes", "MAX_UPLOAD_BYTES")
	viper.BindEnv("gallery_max_limit", "GALLERY_MAX_LIMIT")
}

func setDefaults() {
	viper.SetDefault("app_name", "artstyle-api")
	viper.SetDefault("app_env", "dev")
	viper.SetDefault("app_log_level", "INFO")
	viper.SetDefault("app_port", 8080)
	viper.SetDefault("model_path", "models/artstyle_b3.onnx")
	viper.SetDefault("max_upload_bytes", 10<<20)
	viper.SetDefault("gallery_max_limit", 60)
}
