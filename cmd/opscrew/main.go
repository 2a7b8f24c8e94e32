// Command opscrew runs the operations crew as an HTTP service: a team
// of specialist agents behind a task submission API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/opscrew/agent"
	"github.com/BaSui01/opscrew/api/handlers"
	"github.com/BaSui01/opscrew/config"
	"github.com/BaSui01/opscrew/crew"
	"github.com/BaSui01/opscrew/internal/cache"
	"github.com/BaSui01/opscrew/internal/metrics"
	"github.com/BaSui01/opscrew/internal/server"
	"github.com/BaSui01/opscrew/providers/openai"
	"github.com/BaSui01/opscrew/tools"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("opscrew", registry, logger)

	resultCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer resultCache.Close()

	provider := openai.NewProvider(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)

	inventory := seedInventory(logger)
	toolRegistry := tools.NewRegistry(logger)
	tools.RegisterCloudTools(toolRegistry, inventory)
	toolExec := tools.NewCachingExecutor(toolRegistry, resultCache, tools.DefaultCachingConfig(), collector, logger)

	team, err := buildCrew(cfg, provider, logger, collector)
	if err != nil {
		return fmt.Errorf("crew: %w", err)
	}

	ready := func(ctx context.Context) error {
		_, err := toolExec.Execute(ctx, tools.OpInstanceStatus, map[string]any{"instance_id": "i-0web0001"})
		return err
	}

	h := handlers.New(team, ready, registry, logger)
	router := Chain(h.Routes(),
		Recovery(logger),
		RequestID(),
		SecurityHeaders(),
		rateLimit(ctx, cfg),
		RequestLogger(logger, collector),
	)

	manager := server.NewManager(router, server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		MaxHeaderBytes:  cfg.Server.MaxHeaderBytes,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	if err := manager.Start(); err != nil {
		return err
	}
	logger.Info("opscrew started",
		zap.String("addr", manager.BoundAddr()),
		zap.String("process", cfg.Crew.Process),
		zap.String("model", cfg.LLM.Model),
	)
	manager.WaitForShutdown()
	return nil
}

func rateLimit(ctx context.Context, cfg *config.Config) Middleware {
	if !cfg.RateLimit.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return RateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

func buildCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*cache.ResultCache, error) {
	cacheCfg := cache.Config{
		MaxEntries:    cfg.Cache.MaxEntries,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
		Namespace:     cfg.Cache.Namespace,
	}

	var opts []cache.Option
	if cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warn("redis unreachable, running with local cache only",
				zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
			client.Close()
		} else {
			opts = append(opts, cache.WithShared(client))
		}
	}
	return cache.New(cacheCfg, logger, opts...)
}

// seedInventory provides the simulated fleet the cloud tools operate
// on until a real provider backend is wired in.
func seedInventory(logger *zap.Logger) *tools.Inventory {
	inv := tools.NewInventory(logger)
	inv.AddInstance(tools.Instance{
		ID: "i-0web0001", Name: "web-1", Type: "t3.medium",
		State: tools.StateRunning, Zone: "us-west-2a",
	})
	inv.AddInstance(tools.Instance{
		ID: "i-0web0002", Name: "web-2", Type: "t3.medium",
		State: tools.StateRunning, Zone: "us-west-2b",
	})
	inv.AddInstance(tools.Instance{
		ID: "i-0wrk0001", Name: "worker-1", Type: "t3.large",
		State: tools.StateStopped, Zone: "us-west-2a",
	})
	return inv
}

func buildCrew(cfg *config.Config, provider *openai.Provider, logger *zap.Logger, collector *metrics.Collector) (*crew.Crew, error) {
	team := crew.New(cfg.Crew.Name, crew.Process(cfg.Crew.Process), logger, collector)

	base := agent.DefaultConfig()
	base.Model = cfg.LLM.Model
	base.Temperature = float32(cfg.LLM.Temperature)
	base.MaxTokens = cfg.LLM.MaxTokens
	base.Timeout = cfg.LLM.Timeout

	for _, role := range crew.DefaultRoles {
		agentCfg := base
		agentCfg.Role = role.Name
		agentCfg.Goal = role.Goal
		agentCfg.Backstory = role.Backstory
		member, err := agent.New(agentCfg, provider, logger)
		if err != nil {
			return nil, err
		}
		team.AddMember(member, role)
	}

	if crew.Process(cfg.Crew.Process) == crew.ProcessHierarchical {
		managerCfg := base
		managerCfg.Role = crew.RoleManager.Name
		managerCfg.Goal = crew.RoleManager.Goal
		managerCfg.Backstory = crew.RoleManager.Backstory
		managerCfg.AllowDelegation = true
		manager, err := agent.New(managerCfg, provider, logger)
		if err != nil {
			return nil, err
		}
		team.SetManager(manager, crew.RoleManager)
	}
	return team, nil
}
