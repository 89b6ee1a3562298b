package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTranscript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dQw4w9WgXcQ_transcript.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"video_id": "dQw4w9WgXcQ",
		"transcript_text": "DeepSeek-V3 helps with training stability.",
		"ingested_at": "2025-03-09T14:05:07Z"
	}`), 0o644))

	tr, err := LoadTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", tr.VideoID)
	assert.Equal(t, "DeepSeek-V3 helps with training stability.", tr.Text)
	assert.Equal(t, 2025, tr.IngestedAt.Year())
}

func TestLoadTranscript_Errors(t *testing.T) {
	_, err := LoadTranscript(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad_transcript.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o644))
	_, err = LoadTranscript(bad)
	assert.Error(t, err)
}

func TestCaseID(t *testing.T) {
	assert.Equal(t, "abc", CaseID("/x/y/abc_transcript.json"))
	assert.Equal(t, "abc", CaseID("abc_def_transcript.json"))
	assert.Equal(t, "plain", CaseID("plain.json"))
}

func TestPending(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"bbb_transcript.json",
		"aaa_transcript.json",
		"ccc_transcript.json",
		"aaa_strategy.md",
		"telemetry.jsonl",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "logs"), 0o755))

	got, err := Pending(dir, map[string]struct{}{"ccc": {}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "aaa", got[0].CaseID)
	assert.Equal(t, filepath.Join(dir, "aaa_transcript.json"), got[0].Path)
	assert.Equal(t, "bbb", got[1].CaseID)
}

func TestPending_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new")
	got, err := Pending(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.DirExists(t, dir)
}

func TestTranscriptPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/d", "vid_transcript.json"), TranscriptPath("/d", "vid"))
}
