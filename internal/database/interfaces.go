package database

//go:generate mockgen -destination=mocks/mock_database.go -package=database_mocks -typed github.com/mkd-neo4j/neo4j-ogm/internal/database Service,Transaction
import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Service is the store transport used by sessions and tools.
type Service interface {
	// VerifyConnectivity checks the driver can reach the server.
	VerifyConnectivity(ctx context.Context) error
	// ExecuteReadQuery runs a read-only query and collects every record.
	ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	// ExecuteWriteQuery runs a single write query in its own transaction.
	ExecuteWriteQuery(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
	// ExecuteWriteTransaction runs work in one managed write transaction.
	// work may be retried by the driver, so it must not keep state between
	// attempts.
	ExecuteWriteTransaction(ctx context.Context, work func(tx Transaction) error) error
	// Neo4jRecordsToJSON renders records for tool output.
	Neo4jRecordsToJSON(records []*neo4j.Record) (string, error)
	GetDatabaseName() string
	Close(ctx context.Context) error
}

// Transaction runs statements inside ExecuteWriteTransaction.
type Transaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)
}
