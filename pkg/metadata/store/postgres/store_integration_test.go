//go:build integration

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/servr/pkg/metadata"
	"github.com/marmos91/servr/pkg/metadata/storetest"
)

var sharedConfig *Config

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("servr_test"),
		tcpostgres.WithUsername("servr_test"),
		tcpostgres.WithPassword("servr_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432")
	sharedConfig = &Config{
		Host:        host,
		Port:        port.Int(),
		Database:    "servr_test",
		User:        "servr_test",
		Password:    "servr_test",
		SSLMode:     "disable",
		AutoMigrate: true,
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := *sharedConfig
	store, err := New(t.Context(), &cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.pool.Exec(t.Context(), `TRUNCATE nodes, accounts`)
	require.NoError(t, err)
	return store
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) metadata.Store {
		return newTestStore(t)
	})
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	cfg := *sharedConfig
	require.NoError(t, RunMigrations(t.Context(), &cfg))
	require.NoError(t, RunMigrations(t.Context(), &cfg))
}
