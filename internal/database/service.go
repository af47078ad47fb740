// Package database provides the Neo4j transport over neo4j-go-driver.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jService implements Service over a driver.
type Neo4jService struct {
	driver   neo4j.DriverWithContext
	database string
}

var _ Service = (*Neo4jService)(nil)

// NewNeo4jService wraps an existing driver. The service owns the driver
// and closes it on Close.
func NewNeo4jService(driver neo4j.DriverWithContext, database string) (*Neo4jService, error) {
	if driver == nil {
		return nil, fmt.Errorf("driver is nil")
	}
	return &Neo4jService{driver: driver, database: database}, nil
}

// Connect creates a driver and waits for the server with exponential
// backoff, giving up after attempts tries or when ctx is done.
func Connect(ctx context.Context, uri, username, password, database string, attempts int) (*Neo4jService, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}
	if attempts < 1 {
		attempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 0
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	attempt := 0
	err = backoff.RetryNotify(
		func() error {
			attempt++
			return driver.VerifyConnectivity(ctx)
		},
		retry,
		func(err error, wait time.Duration) {
			slog.Warn("neo4j not reachable yet", "uri", uri, "attempt", attempt, "retryIn", wait, "error", err)
		},
	)
	if err != nil {
		_ = driver.Close(ctx)
		if ctx.Err() != nil {
			return nil, fmt.Errorf("connection attempt cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to connect to %s after %d attempts: %w", uri, attempt, err)
	}
	return NewNeo4jService(driver, database)
}

func (s *Neo4jService) VerifyConnectivity(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("failed to verify connectivity: %w", err)
	}
	return nil
}

func (s *Neo4jService) ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return s.executeQuery(ctx, cypher, params, neo4j.Read)
}

func (s *Neo4jService) ExecuteWriteQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return s.executeQuery(ctx, cypher, params, neo4j.Write)
}

func (s *Neo4jService) executeQuery(ctx context.Context, cypher string, params map[string]any, routing neo4j.RoutingControl) ([]*neo4j.Record, error) {
	res, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.database),
		neo4j.ExecuteQueryWithRoutingControl(routing))
	if err != nil {
		slog.Error("query failed", "database", s.database, "error", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return res.Records, nil
}

func (s *Neo4jService) ExecuteWriteTransaction(ctx context.Context, work func(tx Transaction) error) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return nil, work(&managedTransaction{tx: tx})
	})
	if err != nil {
		return fmt.Errorf("write transaction failed: %w", err)
	}
	return nil
}

func (s *Neo4jService) Neo4jRecordsToJSON(records []*neo4j.Record) (string, error) {
	rows := make([]map[string]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.AsMap())
	}
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal records: %w", err)
	}
	return string(out), nil
}

func (s *Neo4jService) GetDatabaseName() string {
	return s.database
}

func (s *Neo4jService) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type managedTransaction struct {
	tx neo4j.ManagedTransaction
}

func (t *managedTransaction) Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}
