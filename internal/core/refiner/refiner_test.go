package refiner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(pairs ...string) map[string]neo4j.EagerResult {
	var recs []*neo4j.Record
	for i := 0; i+1 < len(pairs); i += 2 {
		recs = append(recs, &neo4j.Record{
			Keys:   []string{"id", "content"},
			Values: []any{pairs[i], pairs[i+1]},
		})
	}
	return map[string]neo4j.EagerResult{
		"REFINED_BY]->(:RefinerLog)": {Keys: []string{"id", "content"}, Records: recs},
	}
}

func newTestRefiner(mock *driver.MockDriver, client llm.LLMClient) *Refiner {
	r := NewRefiner(mock, client, config.DefaultPrompts().Refiner, 5000, 5, nil)
	n := 0
	r.NewID = func() string {
		n++
		return fmt.Sprintf("log-%d", n)
	}
	return r
}

func queriesContaining(mock *driver.MockDriver, fragment string) []driver.Statement {
	var out []driver.Statement
	for _, q := range mock.Queries {
		if strings.Contains(q.Query, fragment) {
			out = append(out, q)
		}
	}
	return out
}

func TestRun_InjectsValidTriplesAndStamps(t *testing.T) {
	mock := &driver.MockDriver{QueryResults: candidates("vid1_strat", "Cursor uses Claude 3.5.")}
	mockLLM := &llm.MockClient{Response: `[
		{"source": "Cursor", "target": "Claude 3.5", "rel": "INTEGRATES_WITH"},
		{"source": "Supabase", "target": "Firebase", "rel": "competes with"},
		{"source": "App", "target": "Cloud", "rel": "RUNS_ON]->(x) DETACH DELETE x //"},
		{"source": "Cache", "target": "cache", "rel": "MITIGATES"},
		{"source": "", "target": "Latency", "rel": "MITIGATES"}
	]`}
	r := newTestRefiner(mock, mockLLM)

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, Result{StrategyID: "vid1_strat", Injected: 2, Rejected: 3, Stamped: true}, results[0])

	assert.Contains(t, mockLLM.Prompts[0], "Cursor uses Claude 3.5.")
	assert.True(t, mockLLM.Calls[0].JSON)

	integrates := queriesContaining(mock, "MERGE (a)-[:INTEGRATES_WITH]->(b)")
	require.Len(t, integrates, 1)
	assert.Equal(t, "Cursor", integrates[0].Params["source"])
	assert.Equal(t, "Claude 3.5", integrates[0].Params["target"])
	assert.Len(t, queriesContaining(mock, "MERGE (a)-[:COMPETES_WITH]->(b)"), 1)
	assert.Empty(t, queriesContaining(mock, "DETACH DELETE"), "model text never reaches a query")

	stamps := queriesContaining(mock, "CREATE (l:RefinerLog")
	require.Len(t, stamps, 1)
	assert.Equal(t, "vid1_strat", stamps[0].Params["strategy_id"])
	assert.Equal(t, "log-1", stamps[0].Params["log_id"])
}

func TestRun_CandidateQueryUsesBatchLimit(t *testing.T) {
	mock := &driver.MockDriver{}
	r := newTestRefiner(mock, &llm.MockClient{})
	r.BatchSize = 3

	results, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)

	require.Len(t, mock.Queries, 1)
	assert.Equal(t, driver.UnrefinedStrategiesQuery, mock.Queries[0].Query)
	assert.Equal(t, int64(3), mock.Queries[0].Params["limit"])
}

func TestRun_WrappedListAndPerTripleFailure(t *testing.T) {
	mock := &driver.MockDriver{
		QueryResults: candidates("vid1_strat", "text"),
		FailOn:       "RUNS_ON",
		Err:          errors.New("illegal character"),
	}
	mockLLM := &llm.MockClient{Response: `{"relationships": [
		{"source": "App", "target": "Cloud", "rel": "RUNS_ON"},
		{"source": "Cursor", "target": "Claude", "rel": "INTEGRATES_WITH"}
	]}`}

	results, err := newTestRefiner(mock, mockLLM).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, results[0].Injected)
	assert.Equal(t, 1, results[0].Failed)
	assert.True(t, results[0].Stamped)
}

func TestRun_NonStringFieldsKeepValidTriples(t *testing.T) {
	mock := &driver.MockDriver{QueryResults: candidates("vid1_strat", "text")}
	mockLLM := &llm.MockClient{Response: `[
		{"source": 42, "target": "Claude", "rel": "INTEGRATES_WITH"},
		{"source": "Cursor", "target": "Claude", "rel": "INTEGRATES_WITH"},
		"Supabase competes with Firebase"
	]`}

	results, err := newTestRefiner(mock, mockLLM).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{StrategyID: "vid1_strat", Injected: 2, Rejected: 1, Stamped: true}, results[0])

	integrates := queriesContaining(mock, "MERGE (a)-[:INTEGRATES_WITH]->(b)")
	require.Len(t, integrates, 2)
	assert.Equal(t, "42", integrates[0].Params["source"])
	assert.Equal(t, "Cursor", integrates[1].Params["source"])
}

func TestRun_UnparseableResponseStillStamps(t *testing.T) {
	mock := &driver.MockDriver{QueryResults: candidates("vid1_strat", "text")}
	results, err := newTestRefiner(mock, &llm.MockClient{Response: "no relationships here"}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{StrategyID: "vid1_strat", Stamped: true}, results[0])
	assert.Len(t, queriesContaining(mock, "CREATE (l:RefinerLog"), 1)
}

func TestRun_GenerationFailureLeavesUnrefined(t *testing.T) {
	mock := &driver.MockDriver{QueryResults: candidates("a_strat", "x", "b_strat", "y")}
	results, err := newTestRefiner(mock, &llm.MockClient{Err: errors.New("timeout")}).Run(context.Background())

	assert.True(t, common.IsKind(err, common.KindTransport))
	require.Len(t, results, 2, "one bad candidate does not stop the batch")
	assert.False(t, results[0].Stamped)
	assert.NotEmpty(t, results[0].Error)
	assert.Empty(t, queriesContaining(mock, "CREATE (l:RefinerLog"))
}

func TestRun_CandidateQueryFailure(t *testing.T) {
	mock := &driver.MockDriver{Err: errors.New("unavailable")}
	_, err := newTestRefiner(mock, &llm.MockClient{}).Run(context.Background())
	assert.True(t, common.IsKind(err, common.KindGraph))
}

func TestRun_NoDriver(t *testing.T) {
	r := NewRefiner(nil, &llm.MockClient{}, "%s", 5000, 5, nil)
	_, err := r.Run(context.Background())
	assert.True(t, common.IsKind(err, common.KindConfig))
}

func TestValidate(t *testing.T) {
	rel, s, tg, ok := validate(model.Triple{Source: " Cursor ", Target: "Claude", Rel: "integrates-with"})
	assert.True(t, ok)
	assert.Equal(t, model.IntegratesWith, rel)
	assert.Equal(t, "Cursor", s)
	assert.Equal(t, "Claude", tg)

	_, _, _, ok = validate(model.Triple{Source: "a", Target: "b", Rel: "DEPENDS_ON"})
	assert.False(t, ok)
}
