package common

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"
)

// EmptyJSON is returned by StripFences for blank input so callers always
// have something parseable.
const EmptyJSON = "{}"

const fence = "```"

// openingFence matches a fence line with an optional language tag (c#,
// objective-c++, ...). A tag never starts like a JSON value.
var openingFence = regexp.MustCompile("^```(?:[^\\s`{\\[\"][^\\s`]*)?[ \\t]*(?:\\r?\\n|$)")

// StripFences removes a markdown code fence that models wrap around
// structured output. The opening fence may carry a language tag; either
// side may be missing. The inner text is returned trimmed.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyJSON
	}

	if strings.HasPrefix(text, fence) {
		if loc := openingFence.FindStringIndex(text); loc != nil {
			text = text[loc[1]:]
		} else if len(text) >= 7 && strings.EqualFold(text[3:7], "json") {
			text = text[7:]
		} else {
			text = text[len(fence):]
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, fence)
	text = strings.TrimSpace(text)

	if text == "" {
		return EmptyJSON
	}
	return text
}

// ParseJSON cleans and unmarshals a model response into a type T.
// It handles common LLM quirks: surrounding fences, double-encoded strings,
// leading prose, and syntactically broken JSON (repaired via jsonrepair).
func ParseJSON[T any](response string) (T, error) {
	var zero T
	cleaned := StripFences(response)

	var result T
	if err := json.Unmarshal([]byte(cleaned), &result); err == nil {
		return result, nil
	}

	var asString string
	if err := json.Unmarshal([]byte(cleaned), &asString); err == nil {
		asString = StripFences(asString)
		if err := json.Unmarshal([]byte(asString), &result); err == nil {
			return result, nil
		}
		cleaned = asString
	}

	if span := outermostJSON(cleaned); span != "" && span != cleaned {
		result = zero
		if err := json.Unmarshal([]byte(span), &result); err == nil {
			return result, nil
		}
	}

	if !strings.ContainsAny(cleaned, "{[") {
		return zero, Wrap("", KindParse, fmt.Errorf("no JSON object found in response: %s", Truncate(cleaned, 200)))
	}
	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return zero, Wrap("", KindParse, fmt.Errorf("json repair failed: %w", err))
	}
	if r := strings.TrimSpace(repaired); !strings.HasPrefix(r, "{") && !strings.HasPrefix(r, "[") {
		return zero, Wrap("", KindParse, fmt.Errorf("repaired output is not structured: %s", Truncate(r, 200)))
	}
	result = zero
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return zero, Wrap("", KindParse, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, Truncate(cleaned, 200)))
	}
	return result, nil
}

// outermostJSON returns the slice between the first '{' or '[' and the
// matching last '}' or ']'.
func outermostJSON(s string) string {
	start := strings.IndexAny(s, "{[")
	if start == -1 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

// Truncate returns at most n runes of s. n <= 0 means no bound.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
