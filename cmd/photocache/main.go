package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photocache/internal/cache"
	"photocache/internal/database"
	"photocache/internal/decoder"
	"photocache/internal/filesystem"
	"photocache/internal/generation"
	"photocache/internal/handlers"
	"photocache/internal/imageload"
	"photocache/internal/logging"
	"photocache/internal/memory"
	"photocache/internal/metrics"
	"photocache/internal/middleware"
	"photocache/internal/startup"
	"photocache/internal/workers"
)

const (
	shutdownTimeout         = 30 * time.Second
	cacheCollectorInterval  = 5 * time.Minute
	dbMetricsInterval       = 30 * time.Second
	latencyRelativeAccuracy = 0.01
)

// services holds everything main must stop on shutdown.
type services struct {
	server        *http.Server
	metricsServer *http.Server
	collector     *metrics.Collector
	monitor       *memory.Monitor
	coord         *generation.Coordinator
	pools         generation.Pools
	db            *database.Database
	cache         *cache.Manager
	stopDBMetrics chan struct{}
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}
	filesystem.SetDefaultVolumeResolver(volumeResolver(config))

	memory.Configure(config.MemoryLimit, config.MemoryRatio)
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())

	if config.VipsEnabled {
		if err := decoder.InitVips(); err != nil {
			logging.Warn("libvips initialization failed: %v", err)
		}
	}
	startup.LogDecoderInit(decoder.IsVipsAvailable(), config.FFmpegEnabled)
	dec := decoder.New(decoder.WithFFmpeg(config.FFmpegEnabled))

	cacheManager, err := cache.Open(config.CacheDir)
	if err != nil {
		logging.Fatal("Failed to open cache: %v", err)
	}

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	startup.LogWorkerInit(config.Workers)
	pools := generation.Pools{
		Thumbnail: workers.NewPool("thumbnail", config.Workers.Thumbnail),
		Preview:   workers.NewPool("preview", config.Workers.Preview),
		Metadata:  workers.NewPool("metadata", config.Workers.Metadata),
	}

	latency := metrics.NewLatencyTracker(latencyRelativeAccuracy)

	coord, err := generation.New(generation.Config{
		Cache:            cacheManager,
		Decoder:          dec,
		Pools:            pools,
		RawPrefetchLimit: config.Workers.RawPrefetch,
		Filter:           config.ResizeFilter,
		Monitor:          monitor,
		Store:            db,
		Latency:          latency,
	})
	if err != nil {
		logging.Fatal("Failed to initialize generation coordinator: %v", err)
	}

	h := handlers.New(handlers.Config{
		Coordinator: coord,
		Loader:      imageload.New(dec),
		Database:    db,
		Latency:     latency,
		Monitor:     monitor,
	})

	router := handlers.NewRouter(h)
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	startup.LogHTTPRoutes(router)

	svc := &services{
		server:        newServer(config, router),
		monitor:       monitor,
		coord:         coord,
		pools:         pools,
		db:            db,
		cache:         cacheManager,
		stopDBMetrics: make(chan struct{}),
	}

	if config.MetricsEnabled {
		svc.collector = metrics.NewCollector(cacheManager, cacheCollectorInterval)
		svc.collector.Start()
		svc.metricsServer = newMetricsServer(config.MetricsPort)
		go func() {
			if err := svc.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go runDBMetrics(db, svc.stopDBMetrics)
	go handleShutdown(svc)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := svc.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for cleanup.
	<-shutdownDone
}

var shutdownDone = make(chan struct{})

// volumeResolver labels filesystem metrics by the service's own volumes.
func volumeResolver(config *startup.Config) *filesystem.VolumeResolver {
	return filesystem.NewVolumeResolver(map[string]string{
		"cache":    config.CacheDir,
		"database": filepath.Dir(config.DatabasePath),
	})
}

func newServer(config *startup.Config, router *mux.Router) *http.Server {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	return &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.Logger(loggingConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Full-resolution loads of large RAW files can take a while.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
}

func newMetricsServer(port string) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func runDBMetrics(db *database.Database, stop <-chan struct{}) {
	ticker := time.NewTicker(dbMetricsInterval)
	defer ticker.Stop()

	db.UpdateDBMetrics()
	for {
		select {
		case <-ticker.C:
			db.UpdateDBMetrics()
		case <-stop:
			return
		}
	}
}

func handleShutdown(svc *services) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	shutdown(svc)
	startup.LogShutdownComplete()
	close(shutdownDone)
}

// shutdown stops the HTTP servers first so no new work arrives, then the
// background producers, then the pools, then the stores they write to.
func shutdown(svc *services) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if svc.metricsServer != nil {
		if err := svc.metricsServer.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if svc.collector != nil {
		svc.collector.Stop()
		startup.LogShutdownStepComplete("Cache size collector stopped")
	}

	svc.coord.Close()
	startup.LogShutdownStepComplete("Prefetch dispatch stopped")

	svc.pools.Thumbnail.Close()
	svc.pools.Preview.Close()
	svc.pools.Metadata.Close()
	startup.LogShutdownStepComplete("Worker pools drained")

	svc.monitor.Stop()
	close(svc.stopDBMetrics)

	if err := svc.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	if err := svc.cache.Close(); err != nil {
		logging.Warn("Cache close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Cache lock released")
	}

	decoder.ShutdownVips()
}
