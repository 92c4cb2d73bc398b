package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/veridoc/veridoc/internal/cache"
	"github.com/veridoc/veridoc/internal/chunker"
	"github.com/veridoc/veridoc/internal/config"
	"github.com/veridoc/veridoc/internal/ingest"
	"github.com/veridoc/veridoc/internal/llm"
	"github.com/veridoc/veridoc/internal/search"
	"github.com/veridoc/veridoc/internal/store"
)

// app wires the collaborators every subcommand needs from configuration
type app struct {
	cfg       *config.Config
	store     store.Store
	stage     *ingest.Stage
	chunks    *ingest.ChunkExtractor
	completer llm.Completer
	index     *search.Index
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	st, err := newStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initialize chunk store: %w", err)
	}

	base, err := llm.NewCompleter(llm.ConfigFrom(cfg.LLM))
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	completer := llm.Completer(llm.NewThrottled(base, cfg.LLM.RequestsPerSecond, cfg.LLM.Burst))

	embedder, err := newEmbedder(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	index, err := search.NewIndex(cfg.Search.IndexDir, embedder)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	stage := ingest.NewStage(cfg.Staging.Dir, cfg.Staging.PagesPerSubDocument)
	ck := chunker.New(cfg.Chunking.MaxChars, cfg.Chunking.OverlapSentences)
	chunks := ingest.NewChunkExtractor(stage, st, ck, cfg.Chunking.RefreshRetries, cfg.Chunking.RefreshDelay)

	return &app{
		cfg:       cfg,
		store:     st,
		stage:     stage,
		chunks:    chunks,
		completer: completer,
		index:     index,
	}, nil
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "postgres":
		return store.NewPostgresStore(cfg.Store.DSN, cfg.Store.Debug)
	case "memory", "":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s (supported: postgres, memory)", cfg.Store.Backend)
	}
}

func newEmbedder(cfg *config.Config) (search.Embedder, error) {
	base, err := search.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Search.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("initialize embedder: %w", err)
	}
	if cfg.Search.CacheDir == "" {
		return base, nil
	}

	layered := cache.NewLayeredCache(time.Hour, cfg.Search.CacheDir, cfg.Search.CacheTTL)
	return search.NewCachedEmbedder(base, layered), nil
}

func (a *app) close() {
	_ = a.store.Close()
}
