package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	require.NoError(t, Init("not-a-level", "production"))
	l := Get()
	require.NotNil(t, l)
	assert.False(t, l.Desugar().Core().Enabled(-1), "debug must be disabled at info level")
}

func TestWithFieldsReturnsChild(t *testing.T) {
	require.NoError(t, Init("debug", "development"))
	parent := Get()
	child := parent.WithFields(map[string]interface{}{"component": "test"})
	assert.NotSame(t, parent, child)
	assert.NotNil(t, Component("workflow"))
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Infow("discarded", "k", "v")
}
