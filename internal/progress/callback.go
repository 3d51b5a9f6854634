package progress

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

const (
	StatusRunning = "running"
)

type startKey struct{}

// NodeCallback reports graph node lifecycle events to a Tracker. Only nodes
// whose name is in the watch set are reported; an empty set watches all.
type NodeCallback struct {
	tracker *Tracker
	watch   map[string]bool
	log     *logger.Logger
}

var _ callbacks.Handler = (*NodeCallback)(nil)

func NewNodeCallback(tracker *Tracker, nodes ...string) *NodeCallback {
	watch := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		watch[n] = true
	}
	return &NodeCallback{
		tracker: tracker,
		watch:   watch,
		log:     logger.Component("graph"),
	}
}

func (cb *NodeCallback) watched(info *callbacks.RunInfo) bool {
	if info == nil || info.Name == "" {
		return false
	}
	return len(cb.watch) == 0 || cb.watch[info.Name]
}

func (cb *NodeCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
	if !cb.watched(info) {
		return ctx
	}
	cb.log.Debugw("node start", "node", info.Name, "component", info.Component)
	cb.tracker.Update(info.Name, "", StatusRunning)
	return context.WithValue(ctx, startKey{}, time.Now())
}

func (cb *NodeCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
	if !cb.watched(info) {
		return ctx
	}
	cb.log.Debugw("node end", "node", info.Name, "elapsed", elapsed(ctx))
	cb.tracker.Update(info.Name, "", consts.State_Done)
	return ctx
}

func (cb *NodeCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	if !cb.watched(info) {
		return ctx
	}
	cb.log.Errorw("node failed", "node", info.Name, "elapsed", elapsed(ctx), "error", err)
	cb.tracker.Update(info.Name, "", consts.State_Failed)
	return ctx
}

func (cb *NodeCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return cb.OnStart(ctx, info, nil)
}

func (cb *NodeCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return cb.OnEnd(ctx, info, nil)
}

func elapsed(ctx context.Context) time.Duration {
	start, ok := ctx.Value(startKey{}).(time.Time)
	if !ok {
		return 0
	}
	return time.Since(start)
}
