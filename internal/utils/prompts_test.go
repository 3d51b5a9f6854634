package utils

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPrompt(t *testing.T) {
	content, err := LoadPrompt("analysts/ben_graham")
	require.NoError(t, err)
	assert.Contains(t, content, "margin of safety")

	_, err = LoadPrompt("analysts/missing")
	assert.Error(t, err)
}

func TestRenderPromptKeepsLiteralBraces(t *testing.T) {
	msgs, err := RenderPrompt(context.Background(), "analysts/wsb", "analysts/signal_request", map[string]any{
		"ticker":        "GME",
		"analysis_data": `{"score": 9}`,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[1].Content, "Analysis data for GME")
	assert.Contains(t, msgs[1].Content, `{"score": 9}`)
	assert.Contains(t, msgs[1].Content, `"signal": "bullish" | "bearish" | "neutral"`)
}

func TestRenderPromptSingleTemplate(t *testing.T) {
	msgs, err := RenderPrompt(context.Background(), "roundtable/conclusion", "", map[string]any{
		"ticker":     "ACME",
		"transcript": "Moderator: hi",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "discussion about ACME is complete")
}
