// Command mcp-rhythm runs the MCP tool server for the Rhythm workflow catalog.
// Uses stdio transport for integration with AI assistants.
package main

import (
	"context"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/config"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
	"github.com/rhythm-workflows/rhythm-go/internal/mcpserver"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
	"github.com/rhythm-workflows/rhythm-go/internal/store"
)

func main() {
	if err := config.LoadDotEnv(os.Getenv("RHYTHM_ENV_FILE")); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	// stdout carries the protocol.
	logger := observability.InitLoggerTo(os.Stderr, cfg.LogLevel)
	ctx := context.Background()

	backend, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("unable to open store: %v", err)
	}
	defer closeStore(context.Background())

	// The tools are read-only, so the engine only builds views and needs
	// no dispatcher.
	viewer := engine.New(backend, nil, logger)
	cat := catalog.NewService(backend, viewer, catalog.Options{
		MaxPageSize:           cfg.MaxPageSize,
		ProjectionConcurrency: cfg.ProjectionConcurrency,
		ProjectionTimeout:     cfg.ProjectionTimeout,
		Logger:                logger,
	})

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rhythm",
		Version: "v1.0.0",
	}, nil)
	mcpserver.RegisterTools(server, cat)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
