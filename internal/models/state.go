package models

import (
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

type WorkflowData struct {
	Tickers        []string             `json:"tickers"`
	StartDate      string               `json:"start_date"`
	EndDate        string               `json:"end_date"`
	Portfolio      *Portfolio           `json:"portfolio"`
	AnalystSignals *TickerSignals       `json:"analyst_signals"`
	RiskLimits     map[string]RiskLimit `json:"risk_limits"`
	Decisions      map[string]Decision  `json:"decisions"`
}

type WorkflowMetadata struct {
	ShowReasoning bool   `json:"show_reasoning"`
	ModelName     string `json:"model_name"`
	ModelProvider string `json:"model_provider"`
}

// WorkflowState is owned by one graph run and handed from node to node.
type WorkflowState struct {
	RunID    string            `json:"run_id"`
	Messages []*schema.Message `json:"messages"`
	Data     WorkflowData      `json:"data"`
	Metadata WorkflowMetadata  `json:"metadata"`
}

func NewWorkflowState(tickers []string, start, end time.Time, portfolio *Portfolio, meta WorkflowMetadata) *WorkflowState {
	if portfolio == nil {
		portfolio = &Portfolio{}
	}
	return &WorkflowState{
		RunID: uuid.NewString(),
		Messages: []*schema.Message{
			schema.UserMessage("Make trading decisions based on the provided data."),
		},
		Data: WorkflowData{
			Tickers:        tickers,
			StartDate:      start.Format("2006-01-02"),
			EndDate:        end.Format("2006-01-02"),
			Portfolio:      portfolio,
			AnalystSignals: NewTickerSignals(),
			RiskLimits:     make(map[string]RiskLimit),
			Decisions:      make(map[string]Decision),
		},
		Metadata: meta,
	}
}

// AppendMessage records a node's output message.
func (s *WorkflowState) AppendMessage(name, content string) {
	msg := schema.AssistantMessage(content, nil)
	msg.Name = name
	s.Messages = append(s.Messages, msg)
}
