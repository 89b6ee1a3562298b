package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Text is a string that also decodes from other JSON values. Models
// sometimes answer a "detail" with a list or a number; the value is kept
// instead of failing the whole document. Scalars keep their JSON text,
// lists of values are joined with ", ", objects use their first text-like
// field or their compact JSON, and null is "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = Text(flatten(data))
	return nil
}

// TextList is a list of strings whose elements decode like Text. A value
// that is not a list decodes to nil.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*l = nil
		return nil
	}
	out := make(TextList, 0, len(items))
	for _, item := range items {
		out = append(out, flatten(item))
	}
	*l = out
	return nil
}

var textKeys = []string{"question", "query", "text", "value", "name"}

func flatten(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err == nil {
			parts := make([]string, 0, len(items))
			for _, item := range items {
				if s := flatten(item); s != "" {
					parts = append(parts, s)
				}
			}
			return strings.Join(parts, ", ")
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err == nil {
			for _, k := range textKeys {
				if v, ok := obj[k]; ok {
					if s := flatten(v); s != "" {
						return s
					}
				}
			}
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err == nil {
		return buf.String()
	}
	return string(data)
}
