package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/config"
	"github.com/unkn0wn-root/querycache/genstore"
	asynchook "github.com/unkn0wn-root/querycache/hooks/async"
	zapadapter "github.com/unkn0wn-root/querycache/log/zap"
	pr "github.com/unkn0wn-root/querycache/provider"
	bcprov "github.com/unkn0wn-root/querycache/provider/bigcache"
	"github.com/unkn0wn-root/querycache/provider/memory"
	redisprov "github.com/unkn0wn-root/querycache/provider/redis"
	rprov "github.com/unkn0wn-root/querycache/provider/ristretto"
	"github.com/unkn0wn-root/querycache/sloghooks"
)

// ristretto budget when cache.provider is ristretto; entries cost their size
const ristrettoMaxCost = 64 << 20

func newLogger(cfg config.LoggerConfig, out io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("logger level: %w", err)
	}
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(out), lvl)
	return zap.New(core), nil
}

// stack is everything run builds from the config, closed in reverse.
type stack struct {
	cache *querycache.Client
	hooks *asynchook.Hooks
}

func (s *stack) Close(ctx context.Context) error {
	err := s.cache.Close(ctx)
	s.hooks.Close()
	return err
}

func newCache(ctx context.Context, cfg config.CacheConfig, zl *zap.Logger, hookOut io.Writer) (*stack, error) {
	p, gs, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	hl := slog.New(slog.NewTextHandler(hookOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	hooks := asynchook.New(sloghooks.New(hl, sloghooks.Options{SelfHealEvery: 10, LoadSharedEvery: 100}), 1, 256)

	opts := querycache.Options{
		Namespace:  cfg.Namespace,
		Provider:   p,
		GenStore:   gs,
		Logger:     zapadapter.New(zl, "querycache"),
		Hooks:      hooks,
		DefaultTTL: cfg.TTL,
		StaleTime:  cfg.StaleTime,
		MaxItems:   cfg.MaxItems,
		Disabled:   cfg.Disabled,
	}
	if cfg.Provider == "ristretto" {
		opts.ComputeSetCost = querycache.ByteCost
	}
	c, err := querycache.New(opts)
	if err != nil {
		hooks.Close()
		if p != nil {
			_ = p.Close(ctx)
		}
		return nil, err
	}
	return &stack{cache: c, hooks: hooks}, nil
}

// newProvider returns a nil GenStore for the in-process providers, which
// leaves querycache on its local generation store.
func newProvider(ctx context.Context, cfg config.CacheConfig) (pr.Provider, genstore.GenStore, error) {
	switch cfg.Provider {
	case "memory":
		return memory.New(memory.Config{MaxItems: cfg.MaxItems, TTL: cfg.TTL}), nil, nil
	case "ristretto":
		p, err := rprov.New(rprov.Config{
			NumCounters: int64(cfg.MaxItems) * 10,
			MaxCost:     ristrettoMaxCost,
			BufferItems: 64,
		})
		return p, nil, err
	case "bigcache":
		p, err := bcprov.New(ctx, bcprov.Config{LifeWindow: cfg.TTL, MaxEntriesInWindow: cfg.MaxItems})
		return p, nil, err
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		p, err := redisprov.New(redisprov.Config{Client: rdb, CloseClient: true})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		gs := genstore.NewRedisGenStore(genstore.RedisConfig{Client: rdb, Namespace: cfg.Namespace})
		return p, gs, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache provider %q", cfg.Provider)
	}
}
