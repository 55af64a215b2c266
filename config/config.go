package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Model   ModelConfig   `mapstructure:"model"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Janitor JanitorConfig `mapstructure:"janitor"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxBodySize  int64         `mapstructure:"max_body_size"`
}

type StorageConfig struct {
	UploadDir         string   `mapstructure:"upload_dir"`
	OutputDir         string   `mapstructure:"output_dir"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

type ModelConfig struct {
	InferenceURL   string        `mapstructure:"inference_url"`
	CheckpointRoot string        `mapstructure:"checkpoint_root"`
	DefaultSize    string        `mapstructure:"default_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxInputSide   int           `mapstructure:"max_input_side"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	QueueTimeout   time.Duration `mapstructure:"queue_timeout"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type JanitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// Load 从 YAML 文件加载配置，环境变量 CUTOUT_<SECTION>_<KEY> 优先
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return unmarshal(v)
}

// New 使用默认配置路径加载配置，文件不存在时只用默认值和环境变量
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		cfg, err = unmarshal(newViper())
		if err != nil {
			return Default()
		}
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("CUTOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)

	v.SetDefault("storage.upload_dir", d.Storage.UploadDir)
	v.SetDefault("storage.output_dir", d.Storage.OutputDir)
	v.SetDefault("storage.allowed_extensions", d.Storage.AllowedExtensions)

	v.SetDefault("model.inference_url", d.Model.InferenceURL)
	v.SetDefault("model.checkpoint_root", d.Model.CheckpointRoot)
	v.SetDefault("model.default_size", d.Model.DefaultSize)
	v.SetDefault("model.timeout", d.Model.Timeout)
	v.SetDefault("model.max_input_side", d.Model.MaxInputSide)
	v.SetDefault("model.max_concurrent", d.Model.MaxConcurrent)
	v.SetDefault("model.queue_timeout", d.Model.QueueTimeout)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.ttl", d.Redis.TTL)

	v.SetDefault("janitor.enabled", d.Janitor.Enabled)
	v.SetDefault("janitor.schedule", d.Janitor.Schedule)
	v.SetDefault("janitor.max_age", d.Janitor.MaxAge)
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":5001",
			Mode:         "debug",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			MaxBodySize:  50 * 1024 * 1024,
		},
		Storage: StorageConfig{
			UploadDir:         "./uploads",
			OutputDir:         "./outputs",
			AllowedExtensions: []string{"png", "jpg", "jpeg"},
		},
		Model: ModelConfig{
			InferenceURL:  "http://127.0.0.1:8000/",
			DefaultSize:   "small",
			Timeout:       10 * time.Second,
			MaxInputSide:  1024,
			MaxConcurrent: 4,
			QueueTimeout:  2 * time.Minute,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     24 * time.Hour,
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "@every 1h",
			MaxAge:   24 * time.Hour,
		},
	}
}
