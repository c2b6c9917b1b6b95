package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	MinIO     MinIOConfig     `yaml:"minio"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Video     VideoConfig     `yaml:"video"`
	Quality   QualityConfig   `yaml:"quality"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type StorageConfig struct {
	// Driver selects the metadata backend: "filesystem" (default) or "postgres".
	// Media files always live on the local filesystem under Root.
	Driver string `yaml:"driver"`
	Root   string `yaml:"root"`
	// ThumbnailSize caps the longest side of generated thumbnails.
	ThumbnailSize int `yaml:"thumbnail_size"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	// URL is optional; when empty the API renders videos in-process
	// instead of dispatching jobs to the worker.
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	// Endpoint is optional; when empty export archives stay local only.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type SynthesisConfig struct {
	// Endpoint of the txt2img model server.
	Endpoint string `yaml:"endpoint"`
	// TimeoutSeconds bounds a single generation call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	DefaultWidth   int `yaml:"default_width"`
	DefaultHeight  int `yaml:"default_height"`
	DefaultSteps   int `yaml:"default_steps"`
	// DefaultGuidance is the classifier-free guidance scale.
	DefaultGuidance float64 `yaml:"default_guidance"`
}

type VideoConfig struct {
	FPS             int `yaml:"fps"`
	DefaultDuration int `yaml:"default_duration"`
	// CRF is the x264 constant-quality factor.
	CRF int `yaml:"crf"`
	// WorkerCount is how many render jobs a worker processes concurrently.
	WorkerCount int `yaml:"worker_count"`
}

type QualityConfig struct {
	// MinScore is the default pass threshold on the 0-10 scale.
	MinScore float64 `yaml:"min_score"`
	// SampleFrames caps how many frames are scored per video.
	SampleFrames int `yaml:"sample_frames"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "filesystem"
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "data"
	}
	if cfg.Storage.ThumbnailSize == 0 {
		cfg.Storage.ThumbnailSize = 200
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Synthesis.TimeoutSeconds == 0 {
		cfg.Synthesis.TimeoutSeconds = 120
	}
	if cfg.Synthesis.DefaultWidth == 0 {
		cfg.Synthesis.DefaultWidth = 512
	}
	if cfg.Synthesis.DefaultHeight == 0 {
		cfg.Synthesis.DefaultHeight = 512
	}
	if cfg.Synthesis.DefaultSteps == 0 {
		cfg.Synthesis.DefaultSteps = 30
	}
	if cfg.Synthesis.DefaultGuidance == 0 {
		cfg.Synthesis.DefaultGuidance = 7.5
	}
	if cfg.Video.FPS == 0 {
		cfg.Video.FPS = 30
	}
	if cfg.Video.DefaultDuration == 0 {
		cfg.Video.DefaultDuration = 5
	}
	if cfg.Video.CRF == 0 {
		cfg.Video.CRF = 18
	}
	if cfg.Video.WorkerCount == 0 {
		cfg.Video.WorkerCount = 2
	}
	if cfg.Quality.MinScore == 0 {
		cfg.Quality.MinScore = 7.0
	}
	if cfg.Quality.SampleFrames == 0 {
		cfg.Quality.SampleFrames = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ICG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ICG_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("ICG_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ICG_STORAGE_ROOT"); v != "" {
		cfg.Storage.Root = v
	}
	if v := os.Getenv("ICG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("ICG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("ICG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("ICG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("ICG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("ICG_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("ICG_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("ICG_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("ICG_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("ICG_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("ICG_SYNTHESIS_ENDPOINT"); v != "" {
		cfg.Synthesis.Endpoint = v
	}
	if v := os.Getenv("ICG_VIDEO_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Video.WorkerCount = n
		}
	}
}
