package debug

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

func TestEinoDebuggerDisabled(t *testing.T) {
	d := NewEinoDebugger(&config.Config{}, logger.Nop())
	d.init = func(context.Context) error { t.Fatal("must not initialize"); return nil }

	require.NoError(t, d.Initialize(context.Background()))
	assert.Empty(t, d.URL())
}

func TestEinoDebuggerEnabled(t *testing.T) {
	d := NewEinoDebugger(&config.Config{EinoDebugEnabled: true, EinoDebugPort: 52538}, logger.Nop())
	called := false
	d.init = func(context.Context) error { called = true; return nil }

	require.NoError(t, d.Initialize(context.Background()))
	assert.True(t, called)
	assert.Equal(t, "http://localhost:52538", d.URL())

	d.init = func(context.Context) error { return errors.New("port in use") }
	assert.ErrorContains(t, d.Initialize(context.Background()), "port in use")
}

func TestMux(t *testing.T) {
	mux := NewMux()
	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestServeWithoutAddr(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), "", logger.Nop()))
}
