// In file: cmd/gateway/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dileep-u-k/weather-agent/internal/agent"
	"github.com/dileep-u-k/weather-agent/internal/config"
	"github.com/dileep-u-k/weather-agent/internal/llm"
	"github.com/dileep-u-k/weather-agent/internal/metrics"
	"github.com/dileep-u-k/weather-agent/internal/tools"
	"github.com/dileep-u-k/weather-agent/internal/version"
	"github.com/dileep-u-k/weather-agent/internal/weather"
)

// main is the composition root: it loads configuration, wires the services and
// runs the HTTP server until a shutdown signal arrives.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	buildInfo := version.Get()
	log.Printf("🚀 Starting Weather Agent Gateway | %s", buildInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. LOAD CONFIGURATION
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("❌ FATAL: Configuration Error: %v", err)
	}
	log.Printf("✅ Configuration loaded (%d agents).", len(cfg.Agents))

	// 2. INITIALIZE SERVICES
	profiler := initializeProfiler(ctx, cfg)

	toolManager, err := tools.NewDefaultManager(ctx, tools.Options{
		Weather:        weather.NewService(weather.NewClient(cfg.WeatherClientOptions()...)),
		Timezones:      cfg.Timezones,
		SearchAPIKey:   cfg.SearchAPIKey,
		SearchEngineID: cfg.SearchEngineID,
	})
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}

	router := llm.NewRouter(
		llm.KeyedClientFactory(cfg.APIKeys, llm.WithHeader("X-Title", "weather-agent")),
		profiler,
	)

	agents, err := initializeAgents(cfg, router, toolManager)
	if err != nil {
		log.Fatalf("❌ FATAL: %v", err)
	}
	log.Println("✅ All services initialized.")

	// 3. START BACKGROUND PROCESSES
	if profiler != nil {
		go startHealthChecker(ctx, cfg.Models(), router, cfg.HealthCheckInterval)
	}

	// 4. SETUP AND RUN THE WEB SERVER
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	engine := gin.Default()
	NewGatewayHandler(agents, toolManager, metrics.NewRecorder(), buildInfo).RegisterRoutes(engine)

	srv := &http.Server{Addr: fmt.Sprintf(":%s", cfg.Port), Handler: engine}
	runServerWithGracefulShutdown(ctx, srv)
}

// initializeProfiler connects to Redis when REDIS_ADDR is set. Without Redis the
// gateway still runs, it just routes without health data.
func initializeProfiler(ctx context.Context, cfg *config.AppConfig) *llm.Profiler {
	if cfg.RedisAddr == "" {
		log.Println("WARNING: REDIS_ADDR not set, model profiling disabled.")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("WARNING: Could not connect to Redis at %s, model profiling disabled: %v", cfg.RedisAddr, err)
		_ = rdb.Close()
		return nil
	}
	log.Printf("✅ Connected to Redis at %s.", cfg.RedisAddr)
	return llm.NewProfiler(rdb, cfg.ModelCosts)
}

func initializeAgents(cfg *config.AppConfig, router *llm.Router, toolManager *tools.ToolManager) ([]*agent.Agent, error) {
	agents := make([]*agent.Agent, 0, len(cfg.Agents))
	for _, ac := range cfg.Agents {
		ac.Tools = availableTools(ac, toolManager)
		a, err := agent.New(ac, router, toolManager)
		if err != nil {
			return nil, fmt.Errorf("failed to create agent: %w", err)
		}
		ref, _ := llm.ParseModel(ac.Model)
		if cfg.APIKeys[ref.Provider] == "" {
			log.Printf("WARNING: agent %s uses %s but no API key is set for %s.", ac.Name, ac.Model, ref.Provider)
		}
		agents = append(agents, a)
	}
	log.Printf("✅ %d agents initialized.", len(agents))
	return agents, nil
}

// availableTools drops tools that were not registered, such as web_search
// without credentials, so the agent still starts.
func availableTools(ac agent.Config, toolManager *tools.ToolManager) []string {
	var names []string
	for _, name := range ac.Tools {
		if !toolManager.Has(name) {
			log.Printf("WARNING: agent %s: tool %s is not available, skipping.", ac.Name, name)
			continue
		}
		names = append(names, name)
	}
	return names
}

// startHealthChecker probes every configured model on a fixed interval.
func startHealthChecker(ctx context.Context, models []string, router *llm.Router, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("🩺 Health checker started.")

	runChecks := func() {
		log.Println("🩺 Running proactive health checks...")
		for _, model := range models {
			checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := router.CheckHealth(checkCtx, model)
			cancel()
			log.Printf("Health check for %s: Healthy = %v", model, err == nil)
		}
	}

	runChecks()
	for {
		select {
		case <-ctx.Done():
			log.Println("🩺 Health checker stopped.")
			return
		case <-ticker.C:
			runChecks()
		}
	}
}

// runServerWithGracefulShutdown serves until ctx is cancelled by a signal.
func runServerWithGracefulShutdown(ctx context.Context, srv *http.Server) {
	go func() {
		log.Printf("👂 Gateway is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Listen error: %s\n", err)
		}
	}()

	<-ctx.Done()

	log.Println("🛑 Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("❌ Server shutdown failed:", err)
	}

	log.Println("👋 Server exited gracefully.")
}
