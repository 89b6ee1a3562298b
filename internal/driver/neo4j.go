package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/logger"
)

type Neo4jDriver struct {
	Driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

func NewNeo4jDriver(ctx context.Context, cfg config.Neo4jConfig, log *logger.Logger) (*Neo4jDriver, error) {
	if log == nil {
		log = logger.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), driverConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity check failed: %w", err)
	}

	log.Info("connected to neo4j", "uri", cfg.URI, "database", cfg.Database)
	return &Neo4jDriver{Driver: driver, database: cfg.Database, log: log}, nil
}

// driverConfig caps how long ExecuteWrite retries one transaction
// internally. Zero keeps the driver default.
func driverConfig(cfg config.Neo4jConfig) func(*neo4jconfig.Config) {
	return func(c *neo4jconfig.Config) {
		if d := cfg.TransactionRetry(); d > 0 {
			c.MaxTransactionRetryTime = d
		}
	}
}

func (d *Neo4jDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if d.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(d.database))
	}
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *Neo4jDriver) ExecuteWrite(ctx context.Context, statements []Statement) error {
	session := d.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i, st := range statements {
			res, err := tx.Run(ctx, st.Query, st.Params)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, fmt.Errorf("statement %d: %w", i, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("write transaction failed: %w", err)
	}
	return nil
}

// BuildIndices declares the Entity.name uniqueness constraint that the
// merge protocol relies on, plus lookup indexes for the keyed labels.
func (d *Neo4jDriver) BuildIndices(ctx context.Context) error {
	for _, q := range SchemaQueries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", q, err)
		}
		d.log.Debug("schema applied", "query", q)
	}
	return nil
}
