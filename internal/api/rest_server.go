package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/voxel-world/internal/cache"
	"github.com/annel0/voxel-world/internal/middleware"
	"github.com/annel0/voxel-world/internal/network"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/block"
)

// RestServer — REST API сервера мира: информация о зоне, чтение и
// запись блоков, статистика процесса.
type RestServer struct {
	router   *gin.Engine
	provider *network.ZoneProvider
	registry *block.Registry
	port     string
	metrics  *RuntimeStats

	// Опциональные источники статистики.
	chunkServer *network.ChunkServer
	chunkCache  *cache.ChunkCache
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string
	Provider *network.ZoneProvider
	Registry *block.Registry

	ChunkServer *network.ChunkServer // может быть nil
	ChunkCache  *cache.ChunkCache    // может быть nil
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8080"
	}
	if config.Registry == nil {
		config.Registry = block.DefaultRegistry()
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("rest_api"))

	promMw := middleware.NewPrometheusMiddleware("rest_api")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:      router,
		provider:    config.Provider,
		registry:    config.Registry,
		port:        config.Port,
		metrics:     NewRuntimeStats(),
		chunkServer: config.ChunkServer,
		chunkCache:  config.ChunkCache,
	}

	server.setupRoutes()
	return server
}

func (rs *RestServer) setupRoutes() {
	api := rs.router.Group("/api")
	{
		api.GET("/world", rs.handleWorldInfo)
		api.GET("/blocks", rs.handleGetBlock)
		api.PUT("/blocks", rs.handleSetBlock)
		api.GET("/blocks/kinds", rs.handleBlockKinds)
		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// handleWorldInfo возвращает границы и состав главной зоны.
func (rs *RestServer) handleWorldInfo(c *gin.Context) {
	min, max := rs.provider.Bounds()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о мире",
		Data: map[string]interface{}{
			"main_zone": rs.provider.ZoneName(),
			"min":       min,
			"max":       max,
			"chunks": (max.X - min.X + 1) *
				(max.Y - min.Y + 1) *
				(max.Z - min.Z + 1),
		},
	})
}

// handleGetBlock читает блок по query-параметрам x, y, z.
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	pos, ok := parseBlockPos(c)
	if !ok {
		return
	}

	id, found := rs.provider.Block(pos)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("блок %v вне главной зоны", pos),
		})
		return
	}

	desc, _ := rs.registry.Descriptor(id.Kind)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок найден",
		Data: map[string]interface{}{
			"pos":   pos,
			"kind":  uint32(id.Kind),
			"slug":  desc.Slug,
			"state": id.State,
		},
	})
}

// SetBlockRequest — тело запроса на запись блока.
type SetBlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Slug  string `json:"slug" binding:"required"`
	State uint32 `json:"state"`
}

// handleSetBlock записывает блок.
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	kind, ok := rs.registry.KindBySlug(req.Slug)
	if !ok {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("неизвестный вид блока %q", req.Slug),
		})
		return
	}

	id := block.ID{Kind: kind, State: req.State}
	if _, valid := rs.registry.Unpack(id); !valid {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("состояние %d недопустимо для %q", req.State, req.Slug),
		})
		return
	}

	pos := vec.BlockPos{X: req.X, Y: req.Y, Z: req.Z}
	if err := rs.provider.SetBlock(pos, id); err != nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("блок %v вне главной зоны", pos),
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок записан",
		Data:    map[string]interface{}{"pos": pos, "slug": req.Slug, "state": req.State},
	})
}

// handleBlockKinds возвращает реестр видов блоков.
func (rs *RestServer) handleBlockKinds(c *gin.Context) {
	kinds := make([]map[string]interface{}, 0, rs.registry.NumKinds())
	for k := block.Kind(0); int(k) < rs.registry.NumKinds(); k++ {
		desc, _ := rs.registry.Descriptor(k)
		kinds = append(kinds, map[string]interface{}{
			"kind":         uint32(k),
			"slug":         desc.Slug,
			"display_name": desc.DisplayName,
			"passable":     rs.registry.Passable(block.ID{Kind: k}),
		})
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Виды блоков",
		Data:    map[string]interface{}{"kinds": kinds, "total": len(kinds)},
	})
}

// handleStats возвращает статистику сервера
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	cpuPercent, _ := rs.metrics.ProcessCPU()
	systemCPU, _ := rs.metrics.SystemCPU()

	stats["server"] = map[string]interface{}{
		"uptime":      rs.metrics.Uptime(),
		"memory_mb":   fmt.Sprintf("%.2f", rs.metrics.HeapAllocMB()),
		"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
		"system_cpu":  fmt.Sprintf("%.2f", systemCPU),
		"server_time": time.Now().Unix(),
	}

	stats["memory_details"] = rs.metrics.MemoryBreakdown()

	if rs.chunkServer != nil {
		stats["network"] = map[string]interface{}{
			"connected_clients": rs.chunkServer.ClientCount(),
		}
	}
	if rs.chunkCache != nil {
		stats["cache"] = rs.chunkCache.GetMetrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	return rs.router.Run(rs.port)
}

// Router отдаёт роутер, для тестов через httptest.
func (rs *RestServer) Router() *gin.Engine {
	return rs.router
}

func parseBlockPos(c *gin.Context) (vec.BlockPos, bool) {
	var pos vec.BlockPos
	var err error

	pos.X, err = strconv.Atoi(c.Query("x"))
	if err == nil {
		pos.Y, err = strconv.Atoi(c.Query("y"))
	}
	if err == nil {
		pos.Z, err = strconv.Atoi(c.Query("z"))
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "параметры x, y, z должны быть целыми числами",
		})
		return vec.BlockPos{}, false
	}
	return pos, true
}
