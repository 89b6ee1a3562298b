package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"plain"`, "plain"},
		{`5`, "5"},
		{`1.5e3`, "1.5e3"},
		{`true`, "true"},
		{`null`, ""},
		{`["a", 2, null, "b"]`, "a, 2, b"},
		{`{"text": "inner"}`, "inner"},
		{`{"cost": "high"}`, `{"cost":"high"}`},
	}
	for _, tc := range tests {
		var got struct {
			V Text `json:"v"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"v": `+tc.in+`}`), &got), tc.in)
		assert.Equal(t, tc.want, string(got.V), tc.in)
	}
}

func TestTextList(t *testing.T) {
	var l TextList
	require.NoError(t, json.Unmarshal([]byte(`["a", {"query": "b"}, 3]`), &l))
	assert.Equal(t, TextList{"a", "b", "3"}, l)

	require.NoError(t, json.Unmarshal([]byte(`"not a list"`), &l))
	assert.Nil(t, l)
}

func TestEntity_LenientDecode(t *testing.T) {
	var entities []Entity
	require.NoError(t, json.Unmarshal([]byte(`[
		{"type": "Tool", "name": "Supabase", "detail": ["Database", "Auth"]},
		{"type": "Risk", "name": 7},
		"stray"
	]`), &entities))

	require.Len(t, entities, 3)
	assert.Equal(t, Entity{Type: "Tool", Name: "Supabase", Detail: "Database, Auth"}, entities[0])
	assert.Equal(t, Entity{Type: "Risk", Name: "7"}, entities[1])
	assert.Equal(t, Entity{}, entities[2])
}

func TestTriple_LenientDecode(t *testing.T) {
	var triples []Triple
	require.NoError(t, json.Unmarshal([]byte(`[{"source": 1, "target": "Claude", "rel": "RUNS_ON"}, 5]`), &triples))
	require.Len(t, triples, 2)
	assert.Equal(t, Triple{Source: "1", Target: "Claude", Rel: "RUNS_ON"}, triples[0])
	assert.Equal(t, Triple{}, triples[1])
}

func TestArchitectOutput_LenientDecode(t *testing.T) {
	var out ArchitectOutput
	require.NoError(t, json.Unmarshal([]byte(`{
		"content": "# B",
		"marketing": "just text",
		"entities": {"name": "not a list"}
	}`), &out))
	assert.Equal(t, "# B", out.Content)
	assert.True(t, out.Marketing.Empty())
	assert.Empty(t, out.Entities)

	assert.Error(t, json.Unmarshal([]byte(`[{"content": "# B"}]`), &out), "a list is left to the caller")
}
