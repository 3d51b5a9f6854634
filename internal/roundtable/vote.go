package roundtable

import (
	"fmt"
	"strings"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Vote is one persona's opening signal.
type Vote struct {
	Agent  string
	Signal models.Signal
}

const minReasoningLen = 10

// voteOrder breaks ties between equally popular, equally confident camps.
var voteOrder = []models.SignalKind{models.Bullish, models.Bearish, models.Neutral}

// VoteFallback derives a verdict from the personas' own signals. The
// winning camp has the most votes, then the highest mean confidence; any
// remaining tie goes bullish, bearish, neutral in that order. With no
// votes at all the verdict is neutral at 50.
func VoteFallback(votes []Vote) models.RoundTableOutput {
	count := map[models.SignalKind]int{}
	total := map[models.SignalKind]float64{}
	for _, v := range votes {
		kind := v.Signal.Signal
		if !kind.Valid() {
			kind = models.Neutral
		}
		count[kind]++
		total[kind] += v.Signal.Confidence
	}

	winner, confidence := models.Neutral, 50.0
	if len(votes) > 0 {
		best, bestAvg := -1, -1.0
		for _, kind := range voteOrder {
			n := count[kind]
			if n == 0 {
				continue
			}
			avg := total[kind] / float64(n)
			if n > best || (n == best && avg > bestAvg) {
				winner, best, bestAvg = kind, n, avg
			}
		}
		confidence = bestAvg
	}

	reasoning := fmt.Sprintf("The majority of analysts (%d) had a %s outlook.", count[winner], winner)
	for _, v := range votes {
		if v.Signal.Signal == winner && len(v.Signal.Reasoning) > minReasoningLen {
			reasoning = fmt.Sprintf("Based on multiple analysts: %s: %s", v.Agent, v.Signal.Reasoning)
			break
		}
	}

	var dissent []string
	for _, kind := range voteOrder {
		if kind != winner && count[kind] > 0 {
			dissent = append(dissent, string(kind))
		}
	}
	dissenting := "There were no significant dissenting opinions."
	if len(dissent) > 0 {
		dissenting = fmt.Sprintf("Dissenting views included %s perspectives.", strings.Join(dissent, ", "))
	}

	return models.RoundTableOutput{
		Signal:     winner,
		Confidence: confidence,
		Reasoning:  reasoning,
		DiscussionSummary: fmt.Sprintf(
			"The analysis included %d perspectives: %d bullish, %d bearish, and %d neutral.",
			len(votes), count[models.Bullish], count[models.Bearish], count[models.Neutral]),
		ConsensusView:      fmt.Sprintf("The majority view was %s with an average confidence of %.1f.", winner, confidence),
		DissentingOpinions: dissenting,
	}
}
