package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "config.yaml"
	EnvPrefix   = "GROCERY"

	DefaultPrompt = "apple . banana . orange . " +
		"milk carton . cereal box . bread loaf . " +
		"pasta bag . chips bag . soda can ."
	DefaultBoxThreshold  = 0.30
	DefaultTextThreshold = 0.20
	DefaultBotID         = 12345
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Model     ModelConfig     `mapstructure:"model"`
	Detection DetectionConfig `mapstructure:"detection"`
	Relay     RelayConfig     `mapstructure:"relay"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type UploadConfig struct {
	MaxSize int64  `mapstructure:"max_size" validate:"gt=0"`
	Field   string `mapstructure:"field" validate:"required"`
}

type ModelConfig struct {
	Path           string        `mapstructure:"path" validate:"required"`
	LibraryDir     string        `mapstructure:"library_dir"`
	PoolSize       int           `mapstructure:"pool_size" validate:"gte=1"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout" validate:"gt=0"`
	IntraOpThreads int           `mapstructure:"intra_op_threads" validate:"gte=0"`
	InputWidth     int           `mapstructure:"input_width" validate:"gt=0"`
	InputHeight    int           `mapstructure:"input_height" validate:"gt=0"`
	NumQueries     int           `mapstructure:"num_queries" validate:"gt=0"`
}

type DetectionConfig struct {
	Prompt        string  `mapstructure:"prompt" validate:"required"`
	BoxThreshold  float64 `mapstructure:"box_threshold" validate:"gte=0,lte=1"`
	TextThreshold float64 `mapstructure:"text_threshold" validate:"gte=0,lte=1"`
}

type RelayConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint" validate:"required,url"`
	BotID    int64         `mapstructure:"bot_id"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Load reads configPath (if present), the process environment and a .env file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// New loads configuration from CONFIG_PATH, falling back to config.yaml.
func New() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.field", "file")

	v.SetDefault("model.path", "weights/groundingdino_swint_ogc.onnx")
	v.SetDefault("model.library_dir", "lib")
	v.SetDefault("model.pool_size", 1)
	v.SetDefault("model.acquire_timeout", 60*time.Second)
	v.SetDefault("model.intra_op_threads", 0)
	v.SetDefault("model.input_width", 800)
	v.SetDefault("model.input_height", 800)
	v.SetDefault("model.num_queries", 900)

	v.SetDefault("detection.prompt", DefaultPrompt)
	v.SetDefault("detection.box_threshold", DefaultBoxThreshold)
	v.SetDefault("detection.text_threshold", DefaultTextThreshold)

	v.SetDefault("relay.enabled", true)
	v.SetDefault("relay.endpoint", "http://localhost:8080/api/inventory/ingestion/classification/")
	v.SetDefault("relay.bot_id", DefaultBotID)
	v.SetDefault("relay.timeout", 10*time.Second)
}
