package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"cardsage/internal/chat"
	"cardsage/internal/config"
	"cardsage/internal/eventbus"
	"cardsage/internal/history"
	"cardsage/internal/llm"
	"cardsage/internal/server"
	"cardsage/internal/strategy"
	"cardsage/internal/vector"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.cardsage/config.json)")
	flag.Parse()

	loader, err := config.NewLoader(*configPath)
	if err != nil {
		log.Fatalf("[main] config loader: %v", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("[main] load config: %v", err)
	}

	dbPath := cfg.History.DBPath
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("[main] home dir: %v", err)
		}
		dbPath = filepath.Join(home, ".cardsage", "history.db")
	}

	store, err := history.NewSQLiteStore(dbPath, time.Duration(cfg.History.CacheTTLSecs)*time.Second)
	if err != nil {
		log.Fatalf("[main] open history store: %v", err)
	}
	defer store.Close()

	bus := eventbus.New()
	subscribeLogging(bus)

	provider, err := llm.NewProviderChain(cfg.LLM, cfg.FallbackLLM, bus)
	if err != nil {
		log.Fatalf("[main] llm provider: %v", err)
	}
	log.Printf("[main] using provider %s (%s)", provider.Name(), provider.DefaultModel())

	embedder := llm.NewOpenAIEmbedder(llm.EmbeddingConfig{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
	})
	retriever := vector.New(cfg.Vector.BaseURL, cfg.Vector.Collection, cfg.Vector.APIKey)

	orch := chat.New(store, provider, embedder, retriever, strategy.DefaultRegistry(), bus, cfg.Agent)

	srv := server.New(store, orch)
	if err := srv.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("[main] server: %v", err)
	}
}

// subscribeLogging wires lifecycle events to the process log.
func subscribeLogging(bus *eventbus.Bus) {
	bus.Subscribe(eventbus.TopicStreamError, func(e eventbus.Event) {
		log.Printf("[events] stream error: %v", e.Payload)
	})
	bus.Subscribe(eventbus.TopicTitleUpdated, func(e eventbus.Event) {
		log.Printf("[events] title updated for conversation %v", e.Payload)
	})
	bus.Subscribe(eventbus.TopicRetrievalFallback, func(e eventbus.Event) {
		log.Printf("[events] retrieval fell back to broad lookup (%v matches)", e.Payload)
	})
	bus.Subscribe(eventbus.TopicProviderFallback, func(e eventbus.Event) {
		log.Printf("[events] switched to fallback provider %v", e.Payload)
	})
	bus.Subscribe(eventbus.TopicError, func(e eventbus.Event) {
		log.Printf("[events] pipeline error: %v", e.Payload)
	})
}
