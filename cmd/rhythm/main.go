// Command rhythm is an operator CLI for the Rhythm workflow catalog.
//
// Usage:
//
//	rhythm issue-token    --sub SUBJECT [--expires-in 24h] [--key-file PATH]
//	rhythm create-indexes
//	rhythm counts         [--app-id APP]
//	rhythm steps          [--app-id APP]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rhythm-workflows/rhythm-go/internal/api"
	"github.com/rhythm-workflows/rhythm-go/internal/catalog"
	"github.com/rhythm-workflows/rhythm-go/internal/config"
	"github.com/rhythm-workflows/rhythm-go/internal/engine"
	"github.com/rhythm-workflows/rhythm-go/internal/observability"
	"github.com/rhythm-workflows/rhythm-go/internal/store"
	"github.com/rhythm-workflows/rhythm-go/internal/store/mongostore"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	if err := config.LoadDotEnv(os.Getenv("RHYTHM_ENV_FILE")); err != nil {
		log.Fatal(err)
	}

	switch os.Args[1] {
	case "issue-token":
		cmdIssueToken(os.Args[2:])
	case "create-indexes":
		cmdCreateIndexes(os.Args[2:])
	case "counts":
		cmdCounts(os.Args[2:])
	case "steps":
		cmdSteps(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rhythm <issue-token|create-indexes|counts|steps> [flags]")
	os.Exit(1)
}

func loadConfig() config.Config {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func cmdIssueToken(args []string) {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	sub := fs.String("sub", "", "subject claim (required)")
	expiresIn := fs.Duration("expires-in", 24*time.Hour, "token lifetime")
	keyFile := fs.String("key-file", "", "PEM private key file (default $RHYTHM_JWT_PRIVATE_KEY)")
	_ = fs.Parse(args)

	if *sub == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	rawKey := cfg.JWTPrivateKey
	if *keyFile != "" {
		data, err := os.ReadFile(*keyFile)
		if err != nil {
			log.Fatalf("read key file: %v", err)
		}
		rawKey = string(data)
	}
	if rawKey == "" {
		log.Fatal("no private key: set RHYTHM_JWT_PRIVATE_KEY or pass --key-file")
	}

	key, err := api.ParsePrivateKey(rawKey)
	if err != nil {
		log.Fatal(err)
	}
	token, err := api.IssueToken(key, cfg.JWTIssuer, *sub, *expiresIn, time.Now())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}

func cmdCreateIndexes(args []string) {
	fs := flag.NewFlagSet("create-indexes", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg := loadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := mongostore.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := mongostore.New(client, cfg.MongoDB, cfg.StoreTimeout).EnsureIndexes(ctx); err != nil {
		log.Fatalf("create indexes: %v", err)
	}
	fmt.Printf("indexes ensured on database %s\n", cfg.MongoDB)
}

func cmdCounts(args []string) {
	fs := flag.NewFlagSet("counts", flag.ExitOnError)
	appID := fs.String("app-id", "", "restrict to one app")
	_ = fs.Parse(args)

	cat, closeFn := openCatalog()
	defer closeFn()

	counts, err := cat.CountsByStatus(context.Background(), *appID)
	if err != nil {
		log.Fatalf("count workflows: %v", err)
	}
	printJSON(counts)
}

func cmdSteps(args []string) {
	fs := flag.NewFlagSet("steps", flag.ExitOnError)
	appID := fs.String("app-id", "", "restrict to one app")
	_ = fs.Parse(args)

	cat, closeFn := openCatalog()
	defer closeFn()

	steps, err := cat.UniqueSteps(context.Background(), *appID)
	if err != nil {
		log.Fatalf("list steps: %v", err)
	}
	printJSON(steps)
}

func openCatalog() (*catalog.Service, func()) {
	cfg := loadConfig()
	logger := observability.InitLoggerTo(os.Stderr, cfg.LogLevel)

	backend, closeStore, err := store.Open(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	cat := catalog.NewService(backend, engine.New(backend, nil, logger), catalog.Options{
		MaxPageSize: cfg.MaxPageSize,
		Logger:      logger,
	})
	return cat, func() { _ = closeStore(context.Background()) }
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal(err)
	}
}
