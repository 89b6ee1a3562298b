package graphsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/model"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = retry.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}

func TestSync_Disabled(t *testing.T) {
	s := NewSynchronizer(nil, fastRetry, nil)
	res, err := s.Sync(context.Background(), "vid1", "brief", "dossier", nil)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}

func TestSync_WritesCaseAndEntitiesInOneTransaction(t *testing.T) {
	mock := &driver.MockDriver{}
	s := NewSynchronizer(mock, fastRetry, nil)

	entities := []model.Entity{
		{Type: "Tool", Name: "Supabase", Detail: "Database"},
		{Type: "", Name: "NoType"},
		{Type: "Risk", Name: "  "},
		{Type: "Risk", Name: "API Cost", Detail: "High at scale"},
	}
	res, err := s.Sync(context.Background(), "vid1", "# Brief", "Q: a\nA: b\n", entities)
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Entities: 2, Dropped: 2}, res)

	require.Len(t, mock.Writes, 1, "one transaction")
	tx := mock.Writes[0]
	require.Len(t, tx, 2)

	assert.Equal(t, driver.SyncCaseQuery, tx[0].Query)
	assert.Equal(t, "vid1", tx[0].Params["vid"])
	assert.Equal(t, "vid1_strat", tx[0].Params["strategy_id"])
	assert.Equal(t, "vid1_res", tx[0].Params["research_id"])
	assert.Equal(t, "# Brief", tx[0].Params["strategy"])
	assert.Equal(t, "Q: a\nA: b\n", tx[0].Params["research"])

	assert.Equal(t, driver.MergeEntitiesQuery, tx[1].Query)
	batch := tx[1].Params["batch"].([]map[string]interface{})
	require.Len(t, batch, 2)
	assert.Equal(t, "Supabase", batch[0]["name"])
	assert.Equal(t, "Database", batch[0]["detail"])
	assert.Equal(t, "API Cost", batch[1]["name"])
}

func TestSync_NoEntitiesSkipsBatchStatement(t *testing.T) {
	mock := &driver.MockDriver{}
	_, err := NewSynchronizer(mock, fastRetry, nil).Sync(context.Background(), "vid1", "b", "d", []model.Entity{{Name: "x"}})
	require.NoError(t, err)
	require.Len(t, mock.Writes, 1)
	assert.Len(t, mock.Writes[0], 1)
}

// Syncing the same case twice issues identical keyed MERGE statements, so
// the store overwrites content instead of duplicating nodes.
func TestSync_IdempotentKeys(t *testing.T) {
	mock := &driver.MockDriver{}
	s := NewSynchronizer(mock, fastRetry, nil)

	_, err := s.Sync(context.Background(), "vid1", "first", "d", nil)
	require.NoError(t, err)
	_, err = s.Sync(context.Background(), "vid1", "second", "d", nil)
	require.NoError(t, err)

	require.Len(t, mock.Writes, 2)
	first, second := mock.Writes[0][0], mock.Writes[1][0]
	assert.Equal(t, first.Query, second.Query)
	assert.Equal(t, first.Params["strategy_id"], second.Params["strategy_id"])
	assert.Equal(t, "second", second.Params["strategy"])
	assert.Contains(t, first.Query, "SET s.content = $strategy")
}

// Two cases mentioning the same entity both merge on the same name key.
func TestSync_SharedEntityByName(t *testing.T) {
	mock := &driver.MockDriver{}
	s := NewSynchronizer(mock, fastRetry, nil)

	_, err := s.Sync(context.Background(), "vidA", "a", "d", []model.Entity{{Type: "Model", Name: "Claude"}})
	require.NoError(t, err)
	_, err = s.Sync(context.Background(), "vidB", "b", "d", []model.Entity{{Type: "Model", Name: "Claude"}})
	require.NoError(t, err)

	for i, caseID := range []string{"vidA", "vidB"} {
		st := mock.Writes[i][1]
		assert.Contains(t, st.Query, "MERGE (e:Entity {name: item.name})")
		assert.Equal(t, caseID+"_strat", st.Params["strategy_id"])
		assert.Equal(t, "Claude", st.Params["batch"].([]map[string]interface{})[0]["name"])
	}
}

func TestSync_RetriesTransientErrors(t *testing.T) {
	mock := &driver.MockDriver{WriteErrs: []error{errors.New("leader switch"), errors.New("leader switch")}}
	s := NewSynchronizer(mock, fastRetry, nil)
	s.Retryable = func(error) bool { return true }

	_, err := s.Sync(context.Background(), "vid1", "b", "d", nil)
	require.NoError(t, err)
	assert.Len(t, mock.Writes, 3)
}

func TestSync_PermanentErrorIsGraphKind(t *testing.T) {
	mock := &driver.MockDriver{Err: errors.New("auth failure")}
	s := NewSynchronizer(mock, fastRetry, nil)

	_, err := s.Sync(context.Background(), "vid1", "b", "d", nil)
	assert.True(t, common.IsKind(err, common.KindGraph))
	assert.Len(t, mock.Writes, 1, "non-retryable errors are not retried")
}

func TestFilterEntities(t *testing.T) {
	got := FilterEntities([]model.Entity{
		{Type: " Tool ", Name: " Cursor ", Detail: "IDE"},
		{Type: "Tool"},
		{Name: "Orphan"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, map[string]interface{}{"name": "Cursor", "type": "Tool", "detail": "IDE"}, got[0])
	assert.NotNil(t, FilterEntities(nil))
}

func TestIsRetryable_PlainError(t *testing.T) {
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.False(t, IsRetryable(nil))
}
