package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/voxel-world/internal/api"
	"github.com/annel0/voxel-world/internal/cache"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/network"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/annel0/voxel-world/internal/world/block"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (пусто — ENV VOXEL_CONFIG или дефолты)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitLogger(); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseLogger()

	logging.Info("🌍 Запуск сервера воксельного мира...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if err := cfg.World.Validate(); err != nil {
		log.Fatalf("❌ Некорректная конфигурация мира: %v", err)
	}

	kcpAddr := fmt.Sprintf(":%d", cfg.Server.GetKCPPort())
	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	metricsAddr := fmt.Sprintf(":%d", cfg.Server.GetMetricsPort())

	logging.Info("📡 Конфигурация сервера: KCP=%s, REST API=%s, метрики=%s", kcpAddr, restPort, metricsAddr)

	ctx := context.Background()

	// Трассировка включается только при заданном OTLP-эндпоинте.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdownTracing, err := observability.InitTelemetry(ctx, "voxel-world")
		if err != nil {
			logging.Warn("Трассировка недоступна: %v", err)
		} else {
			defer shutdownTracing(ctx)
		}
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		stream := cfg.EventBus.Stream
		if stream == "" {
			stream = "VOXEL_EVENTS"
		}
		jsBus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, stream, 24*time.Hour)
		if err != nil {
			logging.Warn("JetStream недоступен (%v), используется локальная шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("✅ Шина событий: JetStream %s (стрим %s)", cfg.EventBus.URL, stream)
			bus = jsBus
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
	}
	eventbus.Init(bus)

	exporter := eventbus.NewMetricsExporter(bus)
	exporter.StartHTTP(metricsAddr)
	defer exporter.Stop()

	// === ХРАНИЛИЩЕ И МИР ===
	logging.Debug("Открытие хранилища %s...", cfg.Storage.GetPath())
	store, err := storage.NewWorldStorage(cfg.Storage.GetPath())
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer store.Close()

	registry := block.DefaultRegistry()

	w, err := loadOrGenerateWorld(store, registry, cfg)
	if err != nil {
		logging.Error("❌ Ошибка подготовки мира: %v", err)
		log.Fatalf("❌ Ошибка подготовки мира: %v", err)
	}

	provider := network.NewZoneProvider(w.MainZoneID(), w.MainZone())

	// === КЕШ ЧАНКОВ (опционально) ===
	var chunkCache *cache.ChunkCache
	var invalidator *cache.Invalidator
	if cfg.Cache.RedisAddr != "" {
		chunkCache, err = cache.NewChunkCache(&cache.Config{
			RedisAddr: cfg.Cache.RedisAddr,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, store)
		if err != nil {
			logging.Warn("Redis недоступен (%v), кеш чанков отключён", err)
			chunkCache = nil
		} else {
			logging.Info("✅ Кеш чанков: Redis %s", cfg.Cache.RedisAddr)
			defer chunkCache.Close()
		}
	}
	if chunkCache != nil && cfg.EventBus.URL != "" {
		invalidator, err = cache.NewInvalidator(cfg.EventBus.URL, "", uuid.NewString())
		if err != nil {
			logging.Warn("Инвалидация кеша через NATS недоступна: %v", err)
			invalidator = nil
		} else {
			defer invalidator.Close()
			err = invalidator.Subscribe(ctx, func(key string) error {
				return chunkCache.InvalidateKey(ctx, key)
			})
			if err != nil {
				logging.Warn("Подписка на инвалидацию не удалась: %v", err)
			}
		}
	}

	// === ПЕРСИСТЕНТНОСТЬ ЗАПИСЕЙ ===
	// Изменённые чанки сохраняются фоном; при переполнении очереди чанк
	// всё равно попадёт в хранилище при финальном сохранении зоны.
	dirty := make(chan vec.ChunkPos, 256)
	provider.OnBlockChange(func(pos vec.BlockPos, _ block.ID) {
		select {
		case dirty <- pos.Chunk():
		default:
		}
	})

	var persistWG sync.WaitGroup
	persistWG.Add(1)
	go func() {
		defer persistWG.Done()
		for pos := range dirty {
			chunk, err := provider.Chunk(pos)
			if err != nil {
				continue
			}
			if err := store.SaveChunk(provider.ZoneID(), pos, chunk); err != nil {
				logging.Error("Ошибка сохранения чанка %v: %v", pos, err)
				continue
			}
			if chunkCache != nil {
				if err := chunkCache.Invalidate(ctx, provider.ZoneID(), pos); err != nil {
					logging.Warn("Ошибка инвалидации кеша чанка %v: %v", pos, err)
				}
			}
			if invalidator != nil {
				if err := invalidator.PublishChunk(ctx, provider.ZoneID(), pos); err != nil {
					logging.Warn("Ошибка публикации инвалидации чанка %v: %v", pos, err)
				}
			}
		}
	}()

	// === СЕТЕВЫЕ СЕРВИСЫ ===
	logging.Debug("Запуск KCP сервера чанков...")
	chunkServer := network.NewChunkServer(kcpAddr, provider, network.NewNetworkMetrics())
	if err := chunkServer.Start(); err != nil {
		logging.Error("❌ Ошибка запуска KCP сервера: %v", err)
		log.Fatalf("❌ Ошибка запуска KCP сервера: %v", err)
	}

	logging.Debug("Запуск REST API сервера...")
	restServer := api.NewRestServer(api.Config{
		Port:        restPort,
		Provider:    provider,
		Registry:    registry,
		ChunkServer: chunkServer,
		ChunkCache:  chunkCache,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API завершился с ошибкой: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🧊 Чанки: KCP %s (зона %s)", kcpAddr, provider.ZoneName())
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   📊 Метрики: http://localhost%s/metrics", metricsAddr)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	logging.Debug("Остановка KCP сервера...")
	chunkServer.Stop()

	close(dirty)
	persistWG.Wait()

	logging.Debug("Финальное сохранение зоны...")
	err = provider.SaveTo(func(pos vec.ChunkPos, chunk *world.Chunk) error {
		return store.SaveChunk(provider.ZoneID(), pos, chunk)
	})
	if err != nil {
		logging.Error("❌ Ошибка сохранения зоны: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}

// loadOrGenerateWorld восстанавливает главную зону из хранилища или
// генерирует её по seed конфигурации при первом запуске.
func loadOrGenerateWorld(store *storage.WorldStorage, registry *block.Registry, cfg *config.Config) (*world.World[*world.Zone], error) {
	min := vec.ChunkPos{X: cfg.World.MinX, Y: cfg.World.MinY, Z: cfg.World.MinZ}
	max := vec.ChunkPos{X: cfg.World.MaxX, Y: cfg.World.MaxY, Z: cfg.World.MaxZ}

	id, found, err := store.LoadMainZoneID()
	if err != nil {
		return nil, err
	}
	if found {
		zone, err := store.LoadZone(id, min, max)
		if err == nil {
			logging.Info("✅ Главная зона %s загружена из хранилища (%d×%d×%d чанков)",
				id, zone.XDim(), zone.YDim(), zone.ZDim())
			return world.NewWorldWithMainZoneID(zone, id), nil
		}
		if !errors.Is(err, world.ErrZoneIncomplete) {
			return nil, err
		}
		// Границы зоны в конфигурации изменились: сохранённых чанков не
		// хватает на полную зону, генерируем заново.
		logging.Warn("Сохранённая зона неполная, мир будет сгенерирован заново")
	}

	seed := cfg.World.GetSeed()
	logging.Info("🌱 Генерация главной зоны (seed=%d)...", seed)

	gen := world.NewGenerator(registry, seed)
	zone, err := gen.GenerateZone(world.NewZoneBuilder(min, max))
	if err != nil {
		return nil, err
	}

	w := world.NewWorld(zone)
	if err := store.SaveZone(w.MainZoneID(), zone); err != nil {
		return nil, fmt.Errorf("сохранение сгенерированной зоны: %w", err)
	}
	if err := store.SaveMainZoneID(w.MainZoneID()); err != nil {
		return nil, fmt.Errorf("сохранение идентификатора зоны: %w", err)
	}

	logging.Info("✅ Зона сгенерирована и сохранена (%d чанков)", zone.XDim()*zone.YDim()*zone.ZDim())
	return w, nil
}
