package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// Strategy tries to recover a JSON document from model output.
type Strategy func(text string) (string, bool)

var fencedRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// DefaultStrategies is the order ExtractJSON tries.
var DefaultStrategies = []Strategy{Direct, Fenced, Brace, Repair, Relaxed}

// ExtractJSON returns the first JSON document a strategy recovers.
func ExtractJSON(text string) (string, error) {
	return ExtractWith(text, DefaultStrategies...)
}

func ExtractWith(text string, strategies ...Strategy) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	for _, s := range strategies {
		if out, ok := s(text); ok {
			return out, nil
		}
	}
	return "", ErrNoJSON
}

func isDocument(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return false
	}
	return json.Valid([]byte(s))
}

// Direct accepts text that already is a JSON object or array.
func Direct(text string) (string, bool) {
	text = strings.TrimSpace(text)
	return text, isDocument(text)
}

// Fenced parses the first markdown code block.
func Fenced(text string) (string, bool) {
	m := fencedRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	body := strings.TrimSpace(m[1])
	return body, isDocument(body)
}

// Brace takes the span from the first opening brace to the last closing one.
func Brace(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	body := text[start : end+1]
	return body, isDocument(body)
}

// Repair fixes quotes, trailing commas and unclosed brackets.
func Repair(text string) (string, bool) {
	candidate := text
	if m := fencedRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if start := strings.IndexAny(text, "{["); start >= 0 {
		candidate = text[start:]
	} else {
		return "", false
	}

	repaired, err := jsonrepair.RepairJSON(candidate)
	if err != nil {
		return "", false
	}
	return repaired, isDocument(repaired)
}

// Relaxed parses Hjson (unquoted keys, comments, missing commas) and
// re-encodes it as JSON.
func Relaxed(text string) (string, bool) {
	candidate := text
	if start := strings.IndexByte(text, '{'); start >= 0 {
		if end := strings.LastIndexByte(text, '}'); end > start {
			candidate = text[start : end+1]
		}
	}

	var v map[string]interface{}
	if err := hjson.Unmarshal([]byte(candidate), &v); err != nil || len(v) == 0 {
		return "", false
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(out), true
}
