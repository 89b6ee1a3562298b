package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_MissingFileIsEmpty(t *testing.T) {
	l := NewLedger(filepath.Join(t.TempDir(), "processed_history.log"))
	ids, err := l.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLedger_MarkAndContains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "processed_history.log")
	l := NewLedger(path)

	require.NoError(t, l.Mark("abc123"))
	require.NoError(t, l.Mark("def456"))
	require.NoError(t, l.Mark("abc123"))

	ok, err := l.Contains("abc123")
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := l.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc123\ndef456\nabc123\n", string(data))
}

func TestLedger_IgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.log")
	require.NoError(t, os.WriteFile(path, []byte("\n  a1  \n\nb2\n"), 0o644))

	ids, err := NewLedger(path).Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a1": {}, "b2": {}}, ids)
}

func TestLedger_Clear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pending_sync.log")
	l := NewLedger(path)
	require.NoError(t, l.Mark("a"))
	require.NoError(t, l.Mark("b"))
	require.NoError(t, l.Mark("a"))

	require.NoError(t, l.Clear("a"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b\n", string(data))

	require.NoError(t, l.Clear("b"))
	ids, err := l.Load()
	require.NoError(t, err)
	assert.Empty(t, ids)

	// clearing a ledger that never existed is a no-op
	assert.NoError(t, NewLedger(filepath.Join(t.TempDir(), "none.log")).Clear("x"))
}
