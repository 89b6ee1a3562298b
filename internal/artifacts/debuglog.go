package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const sectionRule = 40

// DebugLog appends raw stage outputs to {dir}/{case_id}_debug_log.txt.
type DebugLog struct {
	mu  sync.Mutex
	dir string
	Now func() time.Time
}

func NewDebugLog(dir string) *DebugLog {
	return &DebugLog{dir: dir, Now: time.Now}
}

func (d *DebugLog) Path(caseID string) string {
	return filepath.Join(d.dir, caseID+"_debug_log.txt")
}

// Write appends one timestamped section. Strings are written verbatim;
// anything else is rendered as indented JSON.
func (d *DebugLog) Write(caseID, section string, content any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	f, err := os.OpenFile(d.Path(caseID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open debug log: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n[%s] === %s ===\n", d.Now().Format("20060102_150405"), section)
	sb.WriteString(render(content))
	sb.WriteString("\n" + strings.Repeat("=", sectionRule) + "\n")

	if _, err := f.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write debug log: %w", err)
	}
	return nil
}

func render(content any) string {
	switch v := content.(type) {
	case nil:
		return "None"
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	}
	b, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Sprint(content)
	}
	return string(b)
}
