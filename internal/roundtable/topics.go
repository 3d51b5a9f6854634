package roundtable

import (
	"encoding/json"
	"strings"
	"unicode"
)

const maxTopics = 3

// DefaultTopics are debated when no topics can be read from the model.
var DefaultTopics = []string{"Valuation", "Growth Prospects", "Competitive Position"}

// ParseTopics reads up to three topics from a reply. It accepts a JSON
// array, a numbered or bulleted list, or anything with a bracketed,
// comma separated list. It returns nil when nothing usable is found.
func ParseTopics(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var arr []any
	if err := json.Unmarshal([]byte(text), &arr); err == nil {
		return cleanTopics(arr)
	}

	if topics := topicsFromLines(text); len(topics) > 0 {
		return topics
	}

	start, end := strings.Index(text, "["), strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		var out []string
		for _, part := range strings.Split(text[start+1:end], ",") {
			if t := strings.Trim(strings.TrimSpace(part), `"'`); t != "" {
				out = append(out, t)
			}
		}
		return head(out)
	}
	return nil
}

func cleanTopics(arr []any) []string {
	var out []string
	for _, v := range arr {
		if t := strings.TrimSpace(stringify(v)); t != "" {
			out = append(out, t)
		}
	}
	return head(out)
}

func topicsFromLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case unicode.IsDigit(rune(line[0])) && strings.Contains(line, ". "):
			out = append(out, strings.TrimSpace(strings.SplitN(line, ". ", 2)[1]))
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			out = append(out, strings.TrimSpace(line[2:]))
		case !strings.HasPrefix(line, "[") && !strings.HasPrefix(line, "{"):
			out = append(out, line)
		}
	}
	return head(out)
}

func head(topics []string) []string {
	if len(topics) > maxTopics {
		return topics[:maxTopics]
	}
	return topics
}
