package graphsync

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/logger"
	"github.com/agenthands/profitgraph/internal/retry"
)

const stage = "graphsync"

type SyncResult struct {
	// Skipped is set when no graph store is configured.
	Skipped  bool
	Entities int
	Dropped  int
}

// Synchronizer upserts one processed case into the graph. A nil Driver
// disables sync.
type Synchronizer struct {
	Driver driver.GraphDriver
	Retry  retry.Policy
	Log    *logger.Logger
	// Retryable decides which driver errors are worth another attempt.
	Retryable func(error) bool
}

func NewSynchronizer(d driver.GraphDriver, policy retry.Policy, log *logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Synchronizer{Driver: d, Retry: policy, Log: log, Retryable: IsRetryable}
}

func (s *Synchronizer) Enabled() bool {
	return s != nil && s.Driver != nil
}

// Sync writes the case triangle and the entity batch in one transaction.
// Calling it again for the same case overwrites content and reuses
// entities by name.
func (s *Synchronizer) Sync(ctx context.Context, caseID, brief, dossier string, entities []model.Entity) (SyncResult, error) {
	if !s.Enabled() {
		return SyncResult{Skipped: true}, nil
	}

	batch := FilterEntities(entities)
	result := SyncResult{Entities: len(batch), Dropped: len(entities) - len(batch)}
	log := s.Log.With("case_id", caseID, "stage", stage)
	log.Info("syncing to neo4j", "entities", result.Entities, "dropped", result.Dropped)

	statements := Statements(caseID, brief, dossier, batch)
	err := retry.DoErr(ctx, s.Retry, func(ctx context.Context) error {
		err := s.Driver.ExecuteWrite(ctx, statements)
		if err != nil && s.Retryable != nil && !s.Retryable(err) {
			return retry.Permanent(err)
		}
		if err != nil {
			log.Warn("graph write failed, retrying", "error", err)
		}
		return err
	})
	if err != nil {
		log.Error("neo4j sync failed", "error", err)
		return result, common.Wrap(stage, common.KindGraph, err)
	}

	log.Info("graph updated")
	return result, nil
}

// Statements builds the parameterized writes for one case. The entity
// statement is omitted when the batch is empty.
func Statements(caseID, brief, dossier string, batch []map[string]interface{}) []driver.Statement {
	statements := []driver.Statement{{
		Query: driver.SyncCaseQuery,
		Params: map[string]interface{}{
			"vid":         caseID,
			"strategy_id": model.StrategyID(caseID),
			"research_id": model.ResearchID(caseID),
			"strategy":    brief,
			"research":    dossier,
		},
	}}
	if len(batch) > 0 {
		statements = append(statements, driver.Statement{
			Query: driver.MergeEntitiesQuery,
			Params: map[string]interface{}{
				"strategy_id": model.StrategyID(caseID),
				"batch":       batch,
			},
		})
	}
	return statements
}

// FilterEntities keeps entities with a non-blank name and type and turns
// them into query parameters.
func FilterEntities(entities []model.Entity) []map[string]interface{} {
	batch := make([]map[string]interface{}, 0, len(entities))
	for _, e := range entities {
		name := strings.TrimSpace(e.Name)
		typ := strings.TrimSpace(e.Type)
		if name == "" || typ == "" {
			continue
		}
		batch = append(batch, map[string]interface{}{
			"name":   name,
			"type":   typ,
			"detail": e.Detail,
		})
	}
	return batch
}

// IsRetryable walks the error chain for a transient driver error.
func IsRetryable(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if neo4j.IsRetryable(e) {
			return true
		}
	}
	return false
}
