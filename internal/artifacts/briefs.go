package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultBriefName = "strategy.md"

// Briefs persists strategy briefs as {dir}/{case_id}_{name}.
type Briefs struct {
	dir string
}

func NewBriefs(dir string) *Briefs {
	return &Briefs{dir: dir}
}

// Save writes content and returns the file path. The suggested name comes
// from a model, so it is reduced to a bare file name first.
func (b *Briefs) Save(caseID, suggestedName, content string) (string, error) {
	name := SanitizeFilename(suggestedName)
	path := filepath.Join(b.dir, caseID+"_"+name)

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create brief dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save brief %s: %w", path, err)
	}
	return path, nil
}

// SanitizeFilename strips directories and characters that are unsafe in a
// file name. An empty result becomes strategy.md.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = filepath.Base(name)

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '-', r == '.':
			sb.WriteRune(r)
		case r == ' ':
			sb.WriteRune('_')
		}
	}
	clean := strings.Trim(sb.String(), ".")
	if clean == "" {
		return defaultBriefName
	}
	return clean
}
