package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"

	"github.com/oddiville/sheets/internal/cache"
	"github.com/oddiville/sheets/internal/config"
	"github.com/oddiville/sheets/internal/fetch"
	"github.com/oddiville/sheets/internal/pipeline"
	"github.com/oddiville/sheets/internal/schema"
	"github.com/oddiville/sheets/internal/server"
	"github.com/oddiville/sheets/internal/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	locale, err := language.Parse(cfg.Locale)
	if err != nil {
		log.Fatalf("parsing locale %q: %v", cfg.Locale, err)
	}

	registry, err := schema.New()
	if err != nil {
		log.Fatalf("compiling sheet schemas: %v", err)
	}

	store, err := cache.Open(ctx, cache.Options{
		Backend:   cache.Backend(cfg.CacheBackend),
		DSN:       cfg.DatabaseURL,
		RedisAddr: cfg.RedisAddr,
		RedisDB:   cfg.RedisDB,
		TTL:       cfg.CacheTTL,
	})
	if err != nil {
		log.Fatalf("opening %s cache: %v", cfg.CacheBackend, err)
	}
	defer store.Close()
	log.Printf("payload cache: %s (ttl %s)", cfg.CacheBackend, cfg.CacheTTL)
	if j := cache.NewJanitor(store, cfg.CacheTTL); j != nil {
		go j.Run(ctx)
	}

	var fetcher fetch.Fetcher
	if cfg.PayloadBaseURL != "" {
		h, err := fetch.NewHTTP(fetch.Options{
			BaseURL: cfg.PayloadBaseURL,
			Timeout: cfg.FetchTimeout,
			RPS:     cfg.FetchRPS,
			Burst:   cfg.FetchBurst,
		})
		if err != nil {
			log.Fatalf("configuring payload fetcher: %v", err)
		}
		fetcher = h
	} else {
		log.Println("PAYLOAD_BASE_URL not set: only static sheets and overrides can open")
	}

	bus := state.NewBus(256)
	bus.Subscribe("log", state.NewLogHandler())
	bus.Start(ctx)
	defer bus.Stop()

	slot := state.NewSlot(bus)
	p := pipeline.New(registry, fetcher, slot, pipeline.WithCache(store))
	defer p.Wait()

	if err := server.Run(ctx, server.Config{
		Port:     cfg.Port,
		Registry: registry,
		Pipeline: p,
		Slot:     slot,
		Bus:      bus,
		Locale:   locale,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
