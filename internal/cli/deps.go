package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mdcat-quiz-client/internal/api"
	"mdcat-quiz-client/internal/attempt"
	"mdcat-quiz-client/internal/config"
	"mdcat-quiz-client/internal/domain"
	filestore "mdcat-quiz-client/internal/infra/file"
	redisstore "mdcat-quiz-client/internal/infra/redis"
	sqlitestore "mdcat-quiz-client/internal/infra/sqlite"
	goredis "github.com/redis/go-redis/v9"
)

// AttemptStore is the full local-storage surface the CLI uses: the
// controller's ProgressStore plus the read/list/clear operations behind the
// results commands.
type AttemptStore interface {
	attempt.ProgressStore
	LoadResult(attemptID int) (domain.AttemptResult, bool)
	ListResults() []domain.AttemptResult
	ListInProgress() []domain.AttemptSnapshot
	ClearAll()
}

type deps struct {
	cfg    config.Config
	client *api.Client
	store  AttemptStore
	close  func()
}

func setup(ctx context.Context, configPath, apiURL string) (*deps, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	baseURL := apiURL
	if cfg.API.BaseURL != "" {
		baseURL = cfg.API.BaseURL
	}
	client, err := api.NewClient(baseURL, config.Duration(cfg.API.Timeout, 30*time.Second))
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &deps{cfg: cfg, client: client, store: store, close: closeStore}, nil
}

func openStore(ctx context.Context, cfg config.Config) (AttemptStore, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		ttl := config.Duration(cfg.Store.Redis.TTL, 24*time.Hour)
		return redisstore.NewAttemptStore(client, ttl), func() { _ = client.Close() }, nil
	case "sqlite":
		store, err := sqlitestore.NewAttemptStore(ctx, cfg.Store.Sqlite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	case "", "file":
		dir := cfg.Store.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			dir = filepath.Join(home, ".mdcat-quiz")
		}
		return filestore.NewAttemptStore(dir), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
