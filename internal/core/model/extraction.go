package model

import "encoding/json"

// ResearchPlan is the Strategist output schema.
type ResearchPlan struct {
	ResearchQuestions []string `json:"research_questions" jsonschema_description:"3 to 5 precise web search queries"`
}

// LegacyPlan accepts both the current key and the older "questions" key.
// Question objects such as {"query": "..."} decode to their text.
type LegacyPlan struct {
	ResearchQuestions TextList `json:"research_questions"`
	Questions         TextList `json:"questions"`
}

// All returns research_questions, falling back to the legacy key.
func (p LegacyPlan) All() []string {
	if len(p.ResearchQuestions) > 0 {
		return p.ResearchQuestions
	}
	return p.Questions
}

// Marketing holds the optional promotional excerpts.
type Marketing struct {
	ViralTweet string `json:"viral_tweet,omitempty" jsonschema_description:"280 character hook"`
	LinkedIn   string `json:"linkedin,omitempty" jsonschema_description:"bullet point post"`
}

// UnmarshalJSON accepts non-string fields. A value that is not an object
// decodes to no marketing at all.
func (m *Marketing) UnmarshalJSON(data []byte) error {
	var raw struct {
		ViralTweet Text `json:"viral_tweet"`
		LinkedIn   Text `json:"linkedin"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		*m = Marketing{}
		return nil
	}
	*m = Marketing{ViralTweet: string(raw.ViralTweet), LinkedIn: string(raw.LinkedIn)}
	return nil
}

func (m *Marketing) Empty() bool {
	return m == nil || (m.ViralTweet == "" && m.LinkedIn == "")
}

// ArchitectOutput is the Architect response schema.
type ArchitectOutput struct {
	Filename  string     `json:"filename" jsonschema_description:"snake_case file name ending in .md"`
	Content   string     `json:"content" jsonschema_description:"markdown strategy brief"`
	Marketing *Marketing `json:"marketing,omitempty"`
	Entities  []Entity   `json:"entities"`
}

// UnmarshalJSON keeps the brief when a field has an unexpected type.
// A non-list "entities" value is ignored. Only a value that is not an
// object at all is an error.
func (o *ArchitectOutput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Filename  Text            `json:"filename"`
		Content   Text            `json:"content"`
		Marketing *Marketing      `json:"marketing"`
		Entities  json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := ArchitectOutput{
		Filename:  string(raw.Filename),
		Content:   string(raw.Content),
		Marketing: raw.Marketing,
	}
	if len(raw.Entities) > 0 {
		var entities []Entity
		if err := json.Unmarshal(raw.Entities, &entities); err == nil {
			out.Entities = entities
		}
	}
	*o = out
	return nil
}

// Brief is the Architect stage result. An empty Content means there is
// nothing to sync.
type Brief struct {
	Filename string
	Path     string
	Content  string
	Entities []Entity
	Fallback bool
}
