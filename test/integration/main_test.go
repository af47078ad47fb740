//go:build integration

package integration

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/mkd-neo4j/neo4j-ogm/internal/database"
	"github.com/mkd-neo4j/neo4j-ogm/internal/domain"
	"github.com/mkd-neo4j/neo4j-ogm/internal/session"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const password = "integration-password"

var dbService *database.Neo4jService

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/" + password,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("7687/tcp"),
			wait.ForLog("Started."),
		).WithDeadline(120 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Printf("failed to start neo4j container: %v", err)
		return 1
	}
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}()

	host, err := container.Host(ctx)
	if err != nil {
		log.Printf("failed to get container host: %v", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "7687")
	if err != nil {
		log.Printf("failed to get mapped port: %v", err)
		return 1
	}

	uri := fmt.Sprintf("bolt://%s:%s", host, port.Port())
	dbService, err = database.Connect(ctx, uri, "neo4j", password, "neo4j", 10)
	if err != nil {
		log.Printf("failed to connect: %v", err)
		return 1
	}
	defer dbService.Close(ctx)

	return m.Run()
}

// newSession opens a session over an empty database.
func newSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.NewFactory(domain.MustNewRegistry(), dbService, nil, session.DefaultConfig()).OpenSession()
	require.NoError(t, s.PurgeDatabase(context.Background()))
	return s
}

// count runs a single-valued counting query.
func count(t *testing.T, query string, params map[string]any) int64 {
	t.Helper()
	records, err := dbService.ExecuteReadQuery(context.Background(), query, params)
	require.NoError(t, err)
	require.Len(t, records, 1)
	n, ok := records[0].Values[0].(int64)
	require.True(t, ok, "expected an integer count, got %T", records[0].Values[0])
	return n
}
