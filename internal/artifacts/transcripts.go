package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agenthands/profitgraph/internal/core/model"
)

const transcriptSuffix = "_transcript.json"

// Candidate is an unprocessed transcript on disk.
type Candidate struct {
	CaseID string `json:"case_id"`
	Path   string `json:"path"`
}

// LoadTranscript reads a transcript file written by the acquisition tool.
func LoadTranscript(path string) (model.Transcript, error) {
	var t model.Transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read transcript %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	return t, nil
}

// CaseID is the file base name up to the first underscore.
func CaseID(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "_"); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TranscriptPath is where the acquisition tool stores a video's transcript.
func TranscriptPath(dir, videoID string) string {
	return filepath.Join(dir, videoID+transcriptSuffix)
}

// Pending lists *_transcript.json files in dir whose case id is not in
// done, sorted by file name. A missing dir is created and yields nothing.
func Pending(dir string, done map[string]struct{}) ([]Candidate, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var out []Candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), transcriptSuffix) {
			continue
		}
		id := CaseID(e.Name())
		if _, ok := done[id]; ok {
			continue
		}
		out = append(out, Candidate{CaseID: id, Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
