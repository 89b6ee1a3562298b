package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/config"
	"github.com/agenthands/profitgraph/internal/core"
	"github.com/agenthands/profitgraph/internal/driver"
	"github.com/agenthands/profitgraph/internal/llm"
	"github.com/agenthands/profitgraph/internal/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, graph driver.GraphDriver) (*Server, *artifacts.Store) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage = config.StorageConfig{Dir: dir, LogsDir: filepath.Join(dir, "logs")}
	cfg.Retry = config.RetryConfig{MaxAttempts: 1}
	store := artifacts.NewStore(cfg.Storage, nil)

	client := &llm.MockClient{Response: `{"content": "# Brief", "entities": []}`}
	p := core.NewPipeline(cfg, store, client, &research.MockClient{}, graph, nil)
	return NewServer(p, nil), store
}

func writeTranscript(t *testing.T, store *artifacts.Store, id string) {
	t.Helper()
	body := `{"video_id": "` + id + `", "transcript_text": "some text"}`
	require.NoError(t, os.WriteFile(artifacts.TranscriptPath(store.Dir, id), []byte(body), 0o644))
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.SetupRouter().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "sync_enabled": false}`, w.Body.String())
}

func TestPending(t *testing.T) {
	s, store := newTestServer(t, nil)
	writeTranscript(t, store, "aaa")
	writeTranscript(t, store, "bbb")
	require.NoError(t, store.History.Mark("bbb"))
	require.NoError(t, store.Pending.Mark("zzz"))

	w := do(t, s, http.MethodGet, "/transcripts/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transcripts []artifacts.Candidate `json:"transcripts"`
		PendingSync []string              `json:"pending_sync"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Transcripts, 1)
	assert.Equal(t, "aaa", resp.Transcripts[0].CaseID)
	assert.Equal(t, []string{"zzz"}, resp.PendingSync)
}

func TestRunPipeline_ByVideo(t *testing.T) {
	s, store := newTestServer(t, nil)
	writeTranscript(t, store, "dQw4w9WgXcQ")

	w := do(t, s, http.MethodPost, "/pipeline/runs", RunRequest{Video: "https://youtu.be/dQw4w9WgXcQ"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Reports []core.RunReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, "dQw4w9WgXcQ", resp.Reports[0].CaseID)
	assert.Equal(t, core.StatusCompleted, resp.Reports[0].Status)
}

func TestRunPipeline_FileStaysInStorage(t *testing.T) {
	s, store := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/pipeline/runs", RunRequest{File: "../../etc/abc_transcript.json"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Reports []core.RunReport `json:"reports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, filepath.Join(store.Dir, "abc_transcript.json"), resp.Reports[0].Path)
	assert.Equal(t, core.StatusLoadFailed, resp.Reports[0].Status)
}

func TestRunPipeline_AllPending(t *testing.T) {
	s, store := newTestServer(t, nil)
	writeTranscript(t, store, "aaa")
	writeTranscript(t, store, "bbb")

	w := do(t, s, http.MethodPost, "/pipeline/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ids, err := store.History.Load()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestRunPipeline_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/pipeline/runs", RunRequest{Video: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/pipeline/runs", RunRequest{Limit: -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, video := range []string{"../../x/abc", "https://youtu.be/../../tmp/x"} {
		w = do(t, s, http.MethodPost, "/pipeline/runs", RunRequest{Video: video})
		assert.Equal(t, http.StatusBadRequest, w.Code, video)
	}
}

func TestRunPipeline_Conflict(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.running.Lock()
	defer s.running.Unlock()

	w := do(t, s, http.MethodPost, "/pipeline/runs", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRunRefiner_NoGraph(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/refiner/runs", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRunRefiner(t *testing.T) {
	graph := &driver.MockDriver{QueryResults: map[string]neo4j.EagerResult{
		"REFINED_BY]->(:RefinerLog)": {Records: []*neo4j.Record{{
			Keys:   []string{"id", "content"},
			Values: []any{"vid1_strat", "Cursor integrates Claude"},
		}}},
	}}
	s, _ := newTestServer(t, graph)
	s.Pipeline.Refiner.LLM = &llm.MockClient{Response: `[{"source": "Cursor", "target": "Claude", "rel": "INTEGRATES_WITH"}]`}

	w := do(t, s, http.MethodPost, "/refiner/runs", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"results": [{"strategy_id": "vid1_strat", "injected": 1, "rejected": 0, "failed": 0, "stamped": true}]}`, w.Body.String())
}

func TestClusters_NoGraph(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/graph/clusters", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestClusters(t *testing.T) {
	graph := &driver.MockDriver{QueryResults: map[string]neo4j.EagerResult{
		"type(r) AS rel": {Records: []*neo4j.Record{{
			Keys:   []string{"source", "source_type", "target", "target_type", "rel"},
			Values: []any{"Cursor", "Interface", "Claude", "Model", "INTEGRATES_WITH"},
		}}},
	}}
	s, _ := newTestServer(t, graph)

	w := do(t, s, http.MethodGet, "/graph/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"clusters": [{"label": "Claude", "members": [
		{"type": "Model", "name": "Claude"},
		{"type": "Interface", "name": "Cursor"}
	]}]}`, w.Body.String())
}

func TestClusters_Empty(t *testing.T) {
	s, _ := newTestServer(t, &driver.MockDriver{})
	w := do(t, s, http.MethodGet, "/graph/clusters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"clusters": []}`, w.Body.String())
}
