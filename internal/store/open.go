// Package store selects and opens the configured catalog backend.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/config"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
	"github.com/rhythm-workflows/rhythm-go/internal/store/memory"
	"github.com/rhythm-workflows/rhythm-go/internal/store/mongostore"
)

// Backend is what both the catalog and the engine read and write.
type Backend interface {
	catalog.Store
	engine.RecordStore
}

// Open returns the backend named by cfg.Store and a func that releases it.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Backend, func(context.Context) error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		return memory.New(), func(context.Context) error { return nil }, nil
	case config.StoreMongo, "":
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to mongo", "db", cfg.MongoDB)
		return mongostore.New(client, cfg.MongoDB, cfg.StoreTimeout), client.Disconnect, nil
	}
	return nil, nil, fmt.Errorf("store: unknown backend %q", cfg.Store)
}
