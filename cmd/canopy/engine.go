package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/canopy"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/pkg/adapters/file"
	"github.com/aretw0/canopy/pkg/adapters/llm"
	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/adapters/process"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/generate"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/registry"
)

// app is an engine plus what the transports need next to it.
type app struct {
	engine   *canopy.Engine
	registry *prometheus.Registry
	close    func() error
}

// buildEngine wires the configured stores, tools, data sources and generator.
func buildEngine(cfg *config.Config) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	opts := []canopy.Option{
		canopy.WithLogger(logger),
		canopy.WithLifecycleHooks(metrics.Hooks().Merge(observability.LogHooks(logger))),
		canopy.WithLimits(generate.Limits{
			MaxNodes:      cfg.Limits.MaxNodes,
			MaxTableRows:  cfg.Limits.MaxTableRows,
			MaxPromptSize: cfg.Limits.MaxPromptSize,
		}),
		canopy.WithMaxChanges(cfg.Limits.MaxChanges),
		canopy.WithActionTimeout(time.Duration(cfg.Actions.Timeout)),
		canopy.WithGenerationTimeout(time.Duration(cfg.Generator.Timeout)),
	}
	closer := func() error { return nil }
	var store ports.TreeStore = memory.NewStore()

	switch cfg.Store.Backend {
	case config.StoreRedis:
		rc := cfg.Store.Redis
		rs := redis.New(rc.Addr, rc.Password, rc.DB, redis.WithPrefix(rc.Prefix), redis.WithTTL(time.Duration(rc.TTL)))
		client := rs.Client()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis at %s: %w", rc.Addr, err)
		}
		store = rs
		opts = append(opts,
			canopy.WithChangeStore(redis.NewChangeStore(client, rc.Prefix, time.Duration(rc.TTL))),
			canopy.WithLocker(redis.NewLocker(client, rc.Prefix)),
		)
		closer = client.Close
		logger.Info("using redis store", "addr", rc.Addr)
	case config.StoreFile:
		store = file.NewStore(cfg.Store.Path)
		logger.Info("using file store", "path", cfg.Store.Path)
	}

	mws, err := cfg.StoreMiddleware()
	if err != nil {
		_ = closer()
		return nil, err
	}
	if cfg.Store.EncryptionKey != "" {
		logger.Info("sealing stored snapshots")
	}
	opts = append(opts, canopy.WithStore(middleware.Chain(store, mws...)))

	if len(cfg.Tools) > 0 {
		runner := process.NewRunner(process.WithCommands(cfg.Tools...))
		tools := registry.NewRegistry()
		tools.Fallback(runner)
		names := make([]string, 0, len(cfg.Tools))
		for _, t := range cfg.Tools {
			names = append(names, t.Name)
		}
		tools.Use(registry.AllowList(names...), registry.Logging(logger))
		opts = append(opts, canopy.WithInvoker(tools))
	}

	if len(cfg.Sources) > 0 {
		sources := process.NewSources(cfg.Sources)
		list := make([]ports.DataSource, 0, len(sources))
		for _, s := range sources {
			list = append(list, s)
		}
		opts = append(opts, canopy.WithSources(list...))
	}

	gen, err := llm.NewOpenAI(cfg.LLM())
	switch {
	case err == nil:
		opts = append(opts, canopy.WithGenerator(gen))
	case errors.Is(err, domain.ErrMissingCredential):
		logger.Info("generation disabled: no API key", "env", llm.EnvAPIKey)
	default:
		_ = closer()
		return nil, err
	}

	return &app{engine: canopy.New(opts...), registry: reg, close: closer}, nil
}
