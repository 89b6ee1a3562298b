package model

import (
	"encoding/json"
	"time"
)

const (
	strategySuffix = "_strat"
	researchSuffix = "_res"
)

// StrategyID is the Strategy node key for a case.
func StrategyID(caseID string) string { return caseID + strategySuffix }

// ResearchID is the Research node key for a case.
func ResearchID(caseID string) string { return caseID + researchSuffix }

// Entity is a tool, model, risk or action extracted from a brief. Name is
// the global dedup key in the graph.
type Entity struct {
	Type   string `json:"type" jsonschema:"enum=Tool,enum=Model,enum=Interface,enum=Framework,enum=Risk,enum=Action"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

// UnmarshalJSON stringifies non-string fields. A list element that is not
// an object decodes to an empty Entity, which the sync filter drops.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Text `json:"type"`
		Name   Text `json:"name"`
		Detail Text `json:"detail"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*e = Entity{}
		return nil
	}
	*e = Entity{Type: string(raw.Type), Name: string(raw.Name), Detail: string(raw.Detail)}
	return nil
}

// StrategyCandidate is a synced Strategy awaiting refinement.
type StrategyCandidate struct {
	ID      string
	Content string
}

// Transcript is the record written by the acquisition tool.
type Transcript struct {
	VideoID    string    `json:"video_id"`
	Text       string    `json:"transcript_text"`
	IngestedAt time.Time `json:"ingested_at"`
}
