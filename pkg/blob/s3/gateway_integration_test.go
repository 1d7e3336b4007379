//go:build integration

package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var endpoint string

func TestMain(m *testing.M) {
	if ep := os.Getenv("LOCALSTACK_ENDPOINT"); ep != "" {
		endpoint = ep
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack:3.0",
			ExposedPorts: []string{"4566/tcp"},
			Env: map[string]string{
				"SERVICES":              "s3",
				"EAGER_SERVICE_LOADING": "1",
				"GATEWAY_LISTEN":        "0.0.0.0:4566",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("4566/tcp"),
				wait.ForHTTP("/_localstack/health").WithPort("4566/tcp"),
			).WithDeadline(3 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start localstack container: %v\n", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "4566")
	endpoint = fmt.Sprintf("http://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := NewFromConfig(t.Context(), Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g
}

func TestGatewayRoundTrip(t *testing.T) {
	g := newGateway(t)
	container := "servr-" + uuid.NewString()

	require.NoError(t, g.Healthcheck(t.Context()))

	ok, err := g.ContainerExists(t.Context(), container)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.CreateContainer(t.Context(), container))
	require.NoError(t, g.CreateContainer(t.Context(), container))

	ok, err = g.ContainerExists(t.Context(), container)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Put(t.Context(), container, "a.txt", strings.NewReader("hello"), 5, "text/plain"))

	url, err := g.SignGet(t.Context(), container, "a.txt", time.Hour)
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, g.Delete(t.Context(), container, "a.txt"))
	require.NoError(t, g.Delete(t.Context(), container, "a.txt"))
}
