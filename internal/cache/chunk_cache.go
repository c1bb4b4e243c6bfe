package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
)

// ErrCacheMiss возвращается, когда чанка нет ни в кеше, ни в холодном
// хранилище.
var ErrCacheMiss = fmt.Errorf("cache miss")

// ChunkLoader — холодное хранилище за кешем. Второе значение false
// означает, что чанк никогда не сохранялся.
type ChunkLoader interface {
	LoadChunk(zone world.ZoneID, pos vec.ChunkPos) (*world.Chunk, bool, error)
}

// Metrics — счётчики попаданий кеша. Читается через GetMetrics.
type Metrics struct {
	TotalRequests int64     `json:"total_requests"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	HitRatio      float64   `json:"hit_ratio"`
	LastUpdate    time.Time `json:"last_update"`
}

// Config — настройки горячего кеша чанков.
type Config struct {
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// ChunkCache — горячий кеш закодированных чанков поверх Redis с
// read-through загрузкой из холодного хранилища. Значения в Redis —
// сериализованные чанки (world.EncodeChunk), по тем же ключам
// "chunk:<zone>:<x>:<y>:<z>", что и в холодном хранилище.
type ChunkCache struct {
	client *redis.Client
	loader ChunkLoader
	ttl    time.Duration

	hits     int64
	misses   int64
	requests int64

	metricsMu sync.RWMutex
}

// NewChunkCache подключается к Redis и проверяет соединение.
// loader может быть nil: тогда промах сразу возвращает ErrCacheMiss.
func NewChunkCache(cfg *Config, loader ChunkLoader) (*ChunkCache, error) {
	if cfg.TTL == 0 {
		cfg.TTL = 5 * time.Minute
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Redis: %w", err)
	}

	logging.Info("Кеш чанков инициализирован: %s (TTL %v)", cfg.RedisAddr, cfg.TTL)
	return &ChunkCache{
		client: rdb,
		loader: loader,
		ttl:    cfg.TTL,
	}, nil
}

// CacheKey строит ключ кеша для чанка зоны.
func CacheKey(zone world.ZoneID, pos vec.ChunkPos) string {
	return fmt.Sprintf("chunk:%s:%d:%d:%d", zone.String(), pos.X, pos.Y, pos.Z)
}

// GetChunk возвращает чанк из кеша; при промахе читает из холодного
// хранилища и кладёт результат в кеш (read-through).
func (c *ChunkCache) GetChunk(ctx context.Context, zone world.ZoneID, pos vec.ChunkPos) (*world.Chunk, error) {
	atomic.AddInt64(&c.requests, 1)
	key := CacheKey(zone, pos)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		chunk, decErr := world.DecodeChunk(data)
		if decErr == nil {
			atomic.AddInt64(&c.hits, 1)
			return chunk, nil
		}
		// Повреждённая запись: убираем и идём в холодное хранилище.
		logging.Warn("Повреждённый чанк в кеше %s: %v", key, decErr)
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		return nil, fmt.Errorf("ошибка чтения из Redis: %w", err)
	}

	atomic.AddInt64(&c.misses, 1)

	if c.loader == nil {
		return nil, ErrCacheMiss
	}

	chunk, found, err := c.loader.LoadChunk(zone, pos)
	if err != nil {
		return nil, fmt.Errorf("ошибка холодного хранилища: %w", err)
	}
	if !found {
		return nil, ErrCacheMiss
	}

	// Прогреваем кеш в фоне, не задерживая ответ.
	encoded := world.EncodeChunk(chunk)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			logging.Error("Не удалось прогреть кеш для %s: %v", key, err)
		}
	}()

	return chunk, nil
}

// PutChunk кладёт чанк в кеш.
func (c *ChunkCache) PutChunk(ctx context.Context, zone world.ZoneID, pos vec.ChunkPos, chunk *world.Chunk) error {
	key := CacheKey(zone, pos)
	if err := c.client.Set(ctx, key, world.EncodeChunk(chunk), c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в Redis: %w", err)
	}
	return nil
}

// Invalidate удаляет чанк из кеша. Вызывается после записи блока,
// чтобы следующие читатели получили свежую версию из хранилища.
func (c *ChunkCache) Invalidate(ctx context.Context, zone world.ZoneID, pos vec.ChunkPos) error {
	if err := c.client.Del(ctx, CacheKey(zone, pos)).Err(); err != nil {
		return fmt.Errorf("ошибка удаления из Redis: %w", err)
	}
	return nil
}

// InvalidateKey удаляет произвольный ключ (для сообщений инвалидации
// от других узлов).
func (c *ChunkCache) InvalidateKey(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// GetMetrics возвращает снимок метрик кеша.
func (c *ChunkCache) GetMetrics() *Metrics {
	hits := atomic.LoadInt64(&c.hits)
	misses := atomic.LoadInt64(&c.misses)

	m := &Metrics{
		TotalRequests: atomic.LoadInt64(&c.requests),
		CacheHits:     hits,
		CacheMisses:   misses,
		LastUpdate:    time.Now(),
	}
	if hits+misses > 0 {
		m.HitRatio = float64(hits) / float64(hits+misses)
	}
	return m
}

// Close закрывает соединение с Redis.
func (c *ChunkCache) Close() error {
	return c.client.Close()
}
