// Package debug hosts the developer-facing side servers: the eino visual
// debugger and the health/metrics endpoint.
package debug

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/devops"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

type EinoDebugger struct {
	config *config.Config
	log    *logger.Logger
	init   func(ctx context.Context) error
}

func NewEinoDebugger(cfg *config.Config, log *logger.Logger) *EinoDebugger {
	if log == nil {
		log = logger.Component("debug")
	}
	return &EinoDebugger{
		config: cfg,
		log:    log,
		init:   func(ctx context.Context) error { return devops.Init(ctx) },
	}
}

// Initialize starts the eino devops plugin so compiled workflow graphs can
// be inspected from the IDE plugin. It is a no-op unless enabled.
func (d *EinoDebugger) Initialize(ctx context.Context) error {
	if !d.IsEnabled() {
		return nil
	}

	d.log.Infow("initializing eino debug plugin", "port", d.config.EinoDebugPort)
	if err := d.init(ctx); err != nil {
		return fmt.Errorf("failed to initialize Eino debug plugin: %w", err)
	}
	d.log.Infow("eino debug server ready", "url", d.URL())
	return nil
}

func (d *EinoDebugger) IsEnabled() bool {
	return d.config != nil && d.config.EinoDebugEnabled
}

func (d *EinoDebugger) URL() string {
	if !d.IsEnabled() {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d", d.config.EinoDebugPort)
}
