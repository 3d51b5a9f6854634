// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ErrExhausted is returned once every scripted reply has been used and no
// fallback reply is set.
var ErrExhausted = errors.New("llmtest: no scripted reply left")

// Reply is one scripted outcome.
type Reply struct {
	Content string
	Err     error
}

// ChatModel replays scripted replies in order. When the script runs out it
// answers with Fallback, or ErrExhausted when Fallback is empty. Respond,
// when set, takes precedence and computes the reply from the prompt.
type ChatModel struct {
	mu       sync.Mutex
	replies  []Reply
	Fallback string
	Respond  func(msgs []*schema.Message) Reply

	calls   int
	prompts [][]*schema.Message
}

var _ model.BaseChatModel = (*ChatModel)(nil)

// New returns a model answering with the given contents in order.
func New(contents ...string) *ChatModel {
	m := &ChatModel{}
	for _, c := range contents {
		m.replies = append(m.replies, Reply{Content: c})
	}
	return m
}

// Script returns a model replaying the given replies.
func Script(replies ...Reply) *ChatModel {
	return &ChatModel{replies: replies}
}

// Echo returns a model that always answers with content.
func Echo(content string) *ChatModel {
	return &ChatModel{Fallback: content}
}

// Failing returns a model whose every call fails with err.
func Failing(err error) *ChatModel {
	return &ChatModel{Respond: func([]*schema.Message) Reply { return Reply{Err: err} }}
}

func (m *ChatModel) next(msgs []*schema.Message) Reply {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.prompts = append(m.prompts, msgs)

	if m.Respond != nil {
		return m.Respond(msgs)
	}
	if len(m.replies) > 0 {
		r := m.replies[0]
		m.replies = m.replies[1:]
		return r
	}
	if m.Fallback != "" {
		return Reply{Content: m.Fallback}
	}
	return Reply{Err: ErrExhausted}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := m.next(input)
	if r.Err != nil {
		return nil, r.Err
	}
	return schema.AssistantMessage(r.Content, nil), nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

// Calls reports how many generations were requested.
func (m *ChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns every message list the model received.
func (m *ChatModel) Prompts() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.prompts...)
}

// LastPrompt returns the concatenated content of the latest request.
func (m *ChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	var out string
	for _, msg := range m.prompts[len(m.prompts)-1] {
		out += msg.Content + "\n"
	}
	return out
}
