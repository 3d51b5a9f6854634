package roundtable

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// VerdictStrategy tries to pull the verdict fields out of a reply.
type VerdictStrategy func(text string) (map[string]any, bool)

// VerdictStrategies run in order and the first success wins.
var VerdictStrategies = []VerdictStrategy{
	FencedVerdict,
	BraceVerdict,
	RepairedVerdict,
	RelaxedVerdict,
	KeyedVerdict,
}

var (
	fencedRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	braceRe  = regexp.MustCompile(`\{[\s\S]*?\}`)
)

var verdictKeys = []string{
	"signal", "confidence", "reasoning",
	"discussion_summary", "consensus_view", "dissenting_opinions",
}

var keyRes = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(verdictKeys))
	for _, k := range verdictKeys {
		out[k] = regexp.MustCompile(`"` + k + `"\s*:\s*(?:"([^"]*)"|(-?\d+(?:\.\d+)?))`)
	}
	return out
}()

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// FencedVerdict decodes the first fenced code block that holds an object.
func FencedVerdict(text string) (map[string]any, bool) {
	for _, m := range fencedRe.FindAllStringSubmatch(text, -1) {
		if obj, ok := decodeObject(m[1]); ok {
			return obj, true
		}
	}
	return nil, false
}

// BraceVerdict decodes the first brace-delimited block, treating single
// quotes as double quotes.
func BraceVerdict(text string) (map[string]any, bool) {
	for _, m := range braceRe.FindAllString(text, -1) {
		if obj, ok := decodeObject(strings.ReplaceAll(m, "'", `"`)); ok {
			return obj, true
		}
	}
	return nil, false
}

func RepairedVerdict(text string) (map[string]any, bool) {
	doc, ok := llm.Repair(text)
	if !ok {
		return nil, false
	}
	return decodeObject(doc)
}

func RelaxedVerdict(text string) (map[string]any, bool) {
	doc, ok := llm.Relaxed(text)
	if !ok {
		return nil, false
	}
	return decodeObject(doc)
}

// KeyedVerdict scrapes "key": value pairs one by one. It succeeds when at
// least one known key is found.
func KeyedVerdict(text string) (map[string]any, bool) {
	obj := map[string]any{}
	for _, k := range verdictKeys {
		m := keyRes[k].FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if m[2] != "" {
			if f, err := strconv.ParseFloat(m[2], 64); err == nil {
				obj[k] = f
				continue
			}
		}
		obj[k] = m[1]
	}
	return obj, len(obj) > 0
}

// ParseVerdict turns a reply into a verdict. Fields the reply lacks or
// gets wrong are taken from fallback. The transcript is left empty.
func ParseVerdict(text string, fallback models.RoundTableOutput) (models.RoundTableOutput, bool) {
	for _, strategy := range VerdictStrategies {
		if obj, ok := strategy(text); ok && hasVerdictKey(obj) {
			return fillVerdict(obj, fallback), true
		}
	}
	return fallback, false
}

func hasVerdictKey(obj map[string]any) bool {
	for _, k := range verdictKeys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

func fillVerdict(obj map[string]any, fallback models.RoundTableOutput) models.RoundTableOutput {
	out := fallback

	if s, ok := obj["signal"].(string); ok {
		if kind, valid := models.ParseSignalKind(s); valid {
			out.Signal = kind
		}
	}
	if c, ok := looseFloat(obj["confidence"]); ok {
		out.Confidence = models.ClampConfidence(c)
	}

	text := func(key string, dst *string) {
		if v, ok := obj[key]; ok && v != nil {
			if s := strings.TrimSpace(stringify(v)); s != "" {
				*dst = s
			}
		}
	}
	text("reasoning", &out.Reasoning)
	text("discussion_summary", &out.DiscussionSummary)
	text("consensus_view", &out.ConsensusView)
	text("dissenting_opinions", &out.DissentingOpinions)
	return out
}

func looseFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		return f, err == nil
	}
	return 0, false
}
