package models

import "strings"

// RoundTableOutput is the consensus verdict of one ticker's debate.
type RoundTableOutput struct {
	Signal                 SignalKind `json:"signal"`
	Confidence             float64    `json:"confidence"`
	Reasoning              string     `json:"reasoning"`
	DiscussionSummary      string     `json:"discussion_summary"`
	ConsensusView          string     `json:"consensus_view"`
	DissentingOpinions     string     `json:"dissenting_opinions"`
	ConversationTranscript string     `json:"conversation_transcript"`
}

// Transcript is an append-only record of a debate. Lines are never edited.
type Transcript struct {
	lines []string
}

func (t *Transcript) Append(line string) {
	t.lines = append(t.lines, line)
}

// Lines returns a copy of the recorded lines.
func (t *Transcript) Lines() []string {
	out := make([]string, len(t.lines))
	copy(out, t.lines)
	return out
}

func (t *Transcript) Len() int {
	return len(t.lines)
}

func (t *Transcript) String() string {
	return strings.Join(t.lines, "\n\n")
}
