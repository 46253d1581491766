package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// MongoURI returns the URI of a MongoDB container shared by the whole test
// binary. The test is skipped under -short or when Docker is unavailable.
func MongoURI(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Mongo integration test in -short mode")
	}

	mongoOnce.Do(func() {
		mongoURI, mongoErr = startMongo()
	})
	if mongoErr != nil {
		t.Skipf("skipping Mongo integration test: %v", mongoErr)
	}
	return mongoURI
}

func startMongo() (uri string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	// testcontainers panics on some Docker setups instead of erroring.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mongo container panicked: %v", r)
		}
	}()

	c, err := testcontainers.Run(ctx, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("27017/tcp").WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		return "", fmt.Errorf("start mongo container: %w", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", fmt.Errorf("mongo container host: %w", err)
	}
	port, err := c.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", fmt.Errorf("mongo container port: %w", err)
	}
	if host == "" || host == "localhost" || host == "::1" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}
