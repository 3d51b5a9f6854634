package roundtable

import (
	"encoding/json"
	"fmt"
	"strings"
)

// textKeys are the wrapper keys models use when they answer a plain-text
// request with a JSON object anyway.
var textKeys = []string{"text", "query", "question", "response", "answer"}

// ResponseText unwraps a reply that arrived as a JSON object and strips
// wrapping quotes. Anything else is returned trimmed.
func ResponseText(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.Trim(strings.TrimPrefix(s, "```json"), "`"))
	}
	if strings.HasPrefix(s, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(s), &obj); err == nil {
			if text, ok := textFromObject(obj); ok {
				return strings.TrimSpace(text)
			}
		}
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func textFromObject(obj map[string]any) (string, bool) {
	for _, k := range textKeys {
		if v, ok := obj[k]; ok {
			return stringify(v), true
		}
	}
	if len(obj) == 1 {
		for _, v := range obj {
			return stringify(v), true
		}
	}
	if v, ok := obj["content"]; ok {
		return stringify(v), true
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// withSpeaker makes sure a line starts with "name:".
func withSpeaker(name, text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, name+":") {
		return text
	}
	if strings.HasPrefix(text, "**"+name+":**") {
		return name + ":" + strings.TrimPrefix(text, "**"+name+":**")
	}
	return name + ": " + text
}

// stripSpeaker removes a leading "name:" the model added despite being
// told not to.
func stripSpeaker(name, text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{name + ":", "**" + name + ":**"} {
		if strings.HasPrefix(text, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, prefix))
		}
	}
	return text
}
