package store_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhythm-workflows/rhythm-go/internal/config"
	"github.com/rhythm-workflows/rhythm-go/internal/store"
	"github.com/rhythm-workflows/rhythm-go/internal/store/memory"
)

func TestOpen_Memory(t *testing.T) {
	backend, closeFn, err := store.Open(context.Background(), config.Config{Store: config.StoreMemory}, slog.Default())
	require.NoError(t, err)
	defer func() { _ = closeFn(context.Background()) }()

	assert.IsType(t, &memory.Store{}, backend)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, _, err := store.Open(context.Background(), config.Config{Store: "redis"}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}
