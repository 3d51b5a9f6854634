package dataflows

import "strings"

var (
	positiveHeadlineWords = []string{"surge", "soar", "jump", "rally", "bullish", "high", "beat", "upgrade", "record", "gain"}
	negativeHeadlineWords = []string{"drop", "fall", "crash", "bearish", "low", "down", "miss", "downgrade", "plunge", "lawsuit"}
)

// HeadlineSentiment labels a headline positive, negative or neutral by
// whole-word keyword match. Positive words win ties.
func HeadlineSentiment(title string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	has := func(list []string) bool {
		for _, w := range list {
			if _, ok := set[w]; ok {
				return true
			}
			if _, ok := set[w+"s"]; ok {
				return true
			}
		}
		return false
	}

	switch {
	case has(positiveHeadlineWords):
		return "positive"
	case has(negativeHeadlineWords):
		return "negative"
	}
	return "neutral"
}
