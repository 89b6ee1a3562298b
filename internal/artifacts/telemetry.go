package artifacts

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/logger"
)

const previewRunes = 50

type TelemetryEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
	Agent         string    `json:"agent"`
	PromptVersion string    `json:"prompt_version"`
	InputPreview  string    `json:"input_preview"`
	OutputPreview string    `json:"output_preview"`
	DurationSec   float64   `json:"duration_sec"`
}

// Telemetry appends one JSON line per stage run. Write failures are logged
// and swallowed.
type Telemetry struct {
	mu   sync.Mutex
	path string
	log  *logger.Logger
	Now  func() time.Time
}

func NewTelemetry(path string, log *logger.Logger) *Telemetry {
	if log == nil {
		log = logger.NewNop()
	}
	return &Telemetry{path: path, log: log, Now: time.Now}
}

func (t *Telemetry) Path() string { return t.path }

func (t *Telemetry) Record(runID, agent, promptVersion, input, output string, d time.Duration) {
	entry := TelemetryEntry{
		Timestamp:     t.Now(),
		RunID:         runID,
		Agent:         agent,
		PromptVersion: promptVersion,
		InputPreview:  common.Truncate(input, previewRunes),
		OutputPreview: common.Truncate(output, previewRunes),
		DurationSec:   math.Round(d.Seconds()*100) / 100,
	}
	if err := t.append(entry); err != nil {
		t.log.Warn("telemetry write failed", "path", t.path, "error", err)
	}
}

func (t *Telemetry) append(entry TelemetryEntry) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s\n", line)
	return err
}
