package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/callbacks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

func TestTrackerFansOutUpdates(t *testing.T) {
	tr := NewTracker(logger.Nop())
	var got []Update
	tr.Register(func(u Update) { got = append(got, u) })

	tr.Update(consts.BenGraham, "AAPL", "Fetching financial metrics")
	tr.Update(consts.BenGraham, "AAPL", consts.State_Done)
	tr.Update(consts.WSB, "GME", consts.State_Pending)

	require.Len(t, got, 3)
	assert.Equal(t, "Fetching financial metrics", got[0].Status)

	latest, ok := tr.Latest(consts.BenGraham)
	require.True(t, ok)
	assert.Equal(t, consts.State_Done, latest.Status)

	snap := tr.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, consts.BenGraham, snap[0].Agent)
	assert.Equal(t, consts.WSB, snap[1].Agent)

	tr.Reset()
	assert.Empty(t, tr.Snapshot())
}

func TestNilTrackerIsSafe(t *testing.T) {
	var tr *Tracker
	tr.Update("a", "b", "c")
	tr.Register(func(Update) {})
	tr.Reset()
	_, ok := tr.Latest("a")
	assert.False(t, ok)
	assert.Nil(t, tr.Snapshot())
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	tr := NewTracker(logger.Nop())
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Update(consts.NancyPelosi, "NVDA", "Analyzing")
		}()
	}
	wg.Wait()
	latest, ok := tr.Latest(consts.NancyPelosi)
	require.True(t, ok)
	assert.Equal(t, "Analyzing", latest.Status)
}

func TestNodeCallbackWatchesSelectedNodes(t *testing.T) {
	tr := NewTracker(logger.Nop())
	cb := NewNodeCallback(tr, consts.RiskManager)
	ctx := context.Background()

	cb.OnStart(ctx, &callbacks.RunInfo{Name: consts.WorkflowGraphName}, nil)
	_, ok := tr.Latest(consts.WorkflowGraphName)
	assert.False(t, ok)

	ctx = cb.OnStart(ctx, &callbacks.RunInfo{Name: consts.RiskManager}, nil)
	u, _ := tr.Latest(consts.RiskManager)
	assert.Equal(t, StatusRunning, u.Status)

	cb.OnEnd(ctx, &callbacks.RunInfo{Name: consts.RiskManager}, nil)
	u, _ = tr.Latest(consts.RiskManager)
	assert.Equal(t, consts.State_Done, u.Status)

	cb.OnError(ctx, &callbacks.RunInfo{Name: consts.RiskManager}, errors.New("boom"))
	u, _ = tr.Latest(consts.RiskManager)
	assert.Equal(t, consts.State_Failed, u.Status)
}
