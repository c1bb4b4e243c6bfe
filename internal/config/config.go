package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера.

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	World    WorldConfig    `yaml:"world"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	EventBus EventBusConfig `yaml:"eventbus"`
}

type ServerConfig struct {
	KCPPort     int `yaml:"kcp_port"`
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// WorldConfig описывает главную зону и генерацию.
type WorldConfig struct {
	Seed int64 `yaml:"seed"`
	// Границы главной зоны в чанковых координатах, включительно.
	MinX int `yaml:"min_x"`
	MinY int `yaml:"min_y"`
	MinZ int `yaml:"min_z"`
	MaxX int `yaml:"max_x"`
	MaxY int `yaml:"max_y"`
	MaxZ int `yaml:"max_z"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
	// Уровень сжатия zstd: 1 (быстро) .. 4 (плотно), 0 — дефолт.
	CompressionLevel int `yaml:"compression_level"`
}

type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"`
	TTLSec    int    `yaml:"ttl_seconds"`
}

type EventBusConfig struct {
	URL    string `yaml:"url"`
	Stream string `yaml:"stream"`
}

// GetKCPPort возвращает KCP порт с поддержкой fallback значений
func (s *ServerConfig) GetKCPPort() int {
	return getPortWithEnvFallback(s.KCPPort, "VOXEL_KCP_PORT", 7777)
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// GetSeed возвращает seed генерации с приоритетом: config -> env -> 0
func (w *WorldConfig) GetSeed() int64 {
	if w.Seed != 0 {
		return w.Seed
	}
	if envVal := os.Getenv("VOXEL_WORLD_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 0
}

// GetPath возвращает путь хранилища с приоритетом: config -> env -> default
func (s *StorageConfig) GetPath() string {
	if s.Path != "" {
		return s.Path
	}
	if envVal := os.Getenv("VOXEL_STORAGE_PATH"); envVal != "" {
		return envVal
	}
	return "data/world"
}

// Validate проверяет согласованность границ главной зоны.
func (w *WorldConfig) Validate() error {
	if w.MinX > w.MaxX || w.MinY > w.MaxY || w.MinZ > w.MaxZ {
		return fmt.Errorf("некорректные границы зоны: min(%d,%d,%d) > max(%d,%d,%d)",
			w.MinX, w.MinY, w.MinZ, w.MaxX, w.MaxY, w.MaxZ)
	}
	return nil
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Default возвращает конфигурацию со значениями по умолчанию:
// главная зона 4×2×4 чанка от начала координат.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			MaxX: 3,
			MaxY: 1,
			MaxZ: 3,
		},
		Storage: StorageConfig{Path: "data/world"},
		Cache:   CacheConfig{TTLSec: 300},
	}
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.World.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
