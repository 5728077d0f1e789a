package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"photocache/internal/logging"
	"photocache/internal/render"
	"photocache/internal/workers"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	CacheDir        string
	DatabasePath    string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	LogHealthChecks bool

	Workers      workers.Sizes
	ResizeFilter render.Filter

	VipsEnabled   bool
	FFmpegEnabled bool

	MemoryLimit int64
	MemoryRatio float64
}

// Defaults for every recognized key. Zero worker counts mean "derive from
// the CPU count".
var defaults = map[string]any{
	"CACHE_DIR":          "/cache",
	"DATABASE_PATH":      "/database/photocache.db",
	"PORT":               "8080",
	"METRICS_PORT":       "9090",
	"METRICS_ENABLED":    true,
	"LOG_LEVEL":          "info",
	"LOG_HEALTH_CHECKS":  false,
	"THUMBNAIL_WORKERS":  0,
	"PREVIEW_WORKERS":    0,
	"METADATA_WORKERS":   0,
	"RAW_PREFETCH_LIMIT": 0,
	"RESIZE_FILTER":      "lanczos",
	"VIPS_ENABLED":       true,
	"FFMPEG_ENABLED":     true,
	"MEMORY_LIMIT":       0,
	"MEMORY_RATIO":       0.80,
}

// LoadConfig loads configuration from the environment and an optional .env
// file, then prepares the cache and database directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	if err := godotenv.Load(".env"); err == nil {
		logging.Info("Loaded environment overrides from .env")
	}

	return load(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

func load(v *viper.Viper) (*Config, error) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	if level, ok := logging.ParseLevel(v.GetString("LOG_LEVEL")); ok {
		logging.SetLevel(level)
	} else {
		logging.Warn("  Invalid LOG_LEVEL %q, keeping %s", v.GetString("LOG_LEVEL"), logging.GetLevel())
	}

	filter, ok := render.ParseFilter(v.GetString("RESIZE_FILTER"))
	if !ok {
		logging.Warn("  Invalid RESIZE_FILTER %q, using %s", v.GetString("RESIZE_FILTER"), render.Lanczos)
		filter = render.Lanczos
	}

	sizes := workers.DefaultSizes().WithOverrides(workers.Sizes{
		Thumbnail:   v.GetInt("THUMBNAIL_WORKERS"),
		Preview:     v.GetInt("PREVIEW_WORKERS"),
		Metadata:    v.GetInt("METADATA_WORKERS"),
		RawPrefetch: v.GetInt("RAW_PREFETCH_LIMIT"),
	})

	config := &Config{
		CacheDir:        v.GetString("CACHE_DIR"),
		DatabasePath:    v.GetString("DATABASE_PATH"),
		Port:            v.GetString("PORT"),
		MetricsPort:     v.GetString("METRICS_PORT"),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
		LogHealthChecks: v.GetBool("LOG_HEALTH_CHECKS"),
		Workers:         sizes,
		ResizeFilter:    filter,
		VipsEnabled:     v.GetBool("VIPS_ENABLED"),
		FFmpegEnabled:   v.GetBool("FFMPEG_ENABLED"),
		MemoryLimit:     v.GetInt64("MEMORY_LIMIT"),
		MemoryRatio:     v.GetFloat64("MEMORY_RATIO"),
	}

	logging.Info("  CACHE_DIR:           %s", config.CacheDir)
	logging.Info("  DATABASE_PATH:       %s", config.DatabasePath)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  THUMBNAIL_WORKERS:   %d", sizes.Thumbnail)
	logging.Info("  PREVIEW_WORKERS:     %d", sizes.Preview)
	logging.Info("  METADATA_WORKERS:    %d", sizes.Metadata)
	logging.Info("  RAW_PREFETCH_LIMIT:  %d", sizes.RawPrefetch)
	logging.Info("  RESIZE_FILTER:       %s", config.ResizeFilter)
	logging.Info("  VIPS_ENABLED:        %v", config.VipsEnabled)
	logging.Info("  FFMPEG_ENABLED:      %v", config.FFmpegEnabled)
	if config.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:        %d", config.MemoryLimit)
		logging.Info("  MEMORY_RATIO:        %.2f", config.MemoryRatio)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	var err error
	config.CacheDir, err = filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	config.DatabasePath, err = filepath.Abs(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}
	logging.Info("  Database path (absolute):   %s", config.DatabasePath)

	for _, dir := range []struct{ path, name string }{
		{config.CacheDir, "cache"},
		{filepath.Dir(config.DatabasePath), "database"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable", dir.name)
	}

	return config, nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogDecoderInit logs which decode backends are available.
func LogDecoderInit(vipsAvailable, ffmpegEnabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DECODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if vipsAvailable {
		logging.Info("  [OK] libvips available for RAW development")
	} else {
		logging.Warn("  libvips unavailable, RAW files without an embedded preview will fail")
	}

	if !ffmpegEnabled {
		logging.Info("  ffmpeg fallback disabled")
		return
	}
	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  HEIC/AVIF sources may not decode")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogWorkerInit logs the pool sizes in use.
func LogWorkerInit(sizes workers.Sizes) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("WORKER POOLS")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Thumbnail workers:   %d", sizes.Thumbnail)
	logging.Info("  Preview workers:     %d", sizes.Preview)
	logging.Info("  Metadata workers:    %d", sizes.Metadata)
	logging.Info("  RAW prefetch limit:  %d", sizes.RawPrefetch)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if !logging.IsDebugEnabled() {
		return
	}

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	logging.Debug("  Registered routes (%d total):", len(routes))
	for _, route := range routes {
		logging.Debug("    %-6s %s", route.Method, route.Path)
	}
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  API:             http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	logging.Info("------------------------------------------------------------")
	logging.Info("  photocache %s (%s)", Version, Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("------------------------------------------------------------")
}

func logSystemInfo() {
	logging.Info("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}
	return nil
}
