package model

import (
	"encoding/json"
	"strings"
)

// RelationType is one of the typed Entity→Entity relationships the refiner
// may create. The set is closed.
type RelationType string

const (
	IntegratesWith RelationType = "INTEGRATES_WITH"
	RunsOn         RelationType = "RUNS_ON"
	CompetesWith   RelationType = "COMPETES_WITH"
	Mitigates      RelationType = "MITIGATES"
)

// RelationTypes lists the vocabulary in prompt order.
var RelationTypes = []RelationType{IntegratesWith, RunsOn, CompetesWith, Mitigates}

// ParseRelationType normalizes a model-supplied verb ("integrates with",
// "Runs-On") and reports whether it belongs to the vocabulary.
func ParseRelationType(raw string) (RelationType, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, rt := range RelationTypes {
		if RelationType(s) == rt {
			return rt, true
		}
	}
	return "", false
}

// Triple is one relationship proposed by the refiner model.
type Triple struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Rel    string `json:"rel" jsonschema:"enum=INTEGRATES_WITH,enum=RUNS_ON,enum=COMPETES_WITH,enum=MITIGATES"`
}

// UnmarshalJSON stringifies non-string fields. A list element that is not
// an object decodes to an empty Triple, which fails validation.
func (t *Triple) UnmarshalJSON(data []byte) error {
	var raw struct {
		Source Text `json:"source"`
		Target Text `json:"target"`
		Rel    Text `json:"rel"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*t = Triple{}
		return nil
	}
	*t = Triple{Source: string(raw.Source), Target: string(raw.Target), Rel: string(raw.Rel)}
	return nil
}

// Relationships is the wrapped form some models return instead of a bare list.
type Relationships struct {
	Relationships []Triple `json:"relationships"`
}
