package tools

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/opscrew/internal/cache"
)

func seededInventory() *Inventory {
	inv := NewInventory(nil)
	inv.AddInstance(Instance{
		ID: "i-0abc123", Name: "web-1", Type: "t3.medium",
		State: StateRunning, Zone: "us-west-2a",
	})
	inv.AddInstance(Instance{
		ID: "i-0def456", Name: "worker-1", Type: "t3.large",
		State: StateStopped, Zone: "us-west-2b",
	})
	return inv
}

func newRegistry(t *testing.T) (*Registry, *Inventory) {
	t.Helper()
	inv := seededInventory()
	reg := NewRegistry(nil)
	RegisterCloudTools(reg, inv)
	return reg, inv
}

func TestInstanceStatus(t *testing.T) {
	reg, _ := newRegistry(t)

	raw, err := reg.Execute(context.Background(), OpInstanceStatus,
		map[string]any{"instance_id": "i-0abc123"})
	require.NoError(t, err)

	var inst Instance
	require.NoError(t, json.Unmarshal(raw, &inst))
	assert.Equal(t, "web-1", inst.Name)
	assert.Equal(t, StateRunning, inst.State)
}

func TestInstanceStatus_Validation(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	_, err := reg.Execute(ctx, OpInstanceStatus, map[string]any{"instance_id": "web-1"})
	assert.ErrorIs(t, err, ErrInvalidInstanceID)

	_, err = reg.Execute(ctx, OpInstanceStatus, map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidInstanceID)

	_, err = reg.Execute(ctx, OpInstanceStatus, map[string]any{"instance_id": "i-0missing"})
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestStartStopLifecycle(t *testing.T) {
	reg, inv := newRegistry(t)
	ctx := context.Background()

	raw, err := reg.Execute(ctx, OpStartInstance, map[string]any{"instance_id": "i-0def456"})
	require.NoError(t, err)
	var res map[string]string
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, StateStopped, res["previous_state"])
	assert.Equal(t, StatePending, res["current_state"])

	raw, err = reg.Execute(ctx, OpStopInstance, map[string]any{"instance_id": "i-0abc123"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.Equal(t, StateRunning, res["previous_state"])
	assert.Equal(t, StateStopping, res["current_state"])

	inst, err := inv.Describe("i-0abc123")
	require.NoError(t, err)
	assert.Equal(t, StateStopping, inst.State)
}

func TestCreateSnapshot(t *testing.T) {
	reg, _ := newRegistry(t)

	raw, err := reg.Execute(context.Background(), OpCreateSnapshot,
		map[string]any{"instance_id": "i-0abc123", "description": "pre-deploy"})
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "i-0abc123", snap.InstanceID)
	assert.Equal(t, "pre-deploy", snap.Description)
	assert.NotEmpty(t, snap.ID)
}

func TestRegistry_UnknownTool(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Execute(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func newCachingExecutor(t *testing.T, reg *Registry) *CachingExecutor {
	t.Helper()
	cfg := cache.DefaultConfig()
	cfg.SweepInterval = 0
	rc, err := cache.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(rc.Close)
	return NewCachingExecutor(reg, rc, DefaultCachingConfig(), nil, nil)
}

func TestCachingExecutor_MemoizesStatus(t *testing.T) {
	inv := seededInventory()
	reg := NewRegistry(nil)
	RegisterCloudTools(reg, inv)

	var calls atomic.Int32
	counted := NewFuncTool(OpInstanceStatus, "counted status",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			calls.Add(1)
			return json.Marshal(map[string]string{"state": StateRunning})
		})
	reg.Register(counted)

	exec := newCachingExecutor(t, reg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		raw, err := exec.Execute(ctx, OpInstanceStatus, map[string]any{"instance_id": "i-0abc123"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"state":"running"}`, string(raw))
	}
	assert.EqualValues(t, 1, calls.Load())

	// Different parameters are a different fingerprint.
	_, err := exec.Execute(ctx, OpInstanceStatus, map[string]any{"instance_id": "i-0def456"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCachingExecutor_MutatingOpsBypassCache(t *testing.T) {
	reg, _ := newRegistry(t)

	var calls atomic.Int32
	reg.Register(NewFuncTool(OpStartInstance, "counted start",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			calls.Add(1)
			return json.Marshal(map[string]string{"current_state": StatePending})
		}))

	exec := newCachingExecutor(t, reg)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := exec.Execute(ctx, OpStartInstance, map[string]any{"instance_id": "i-0def456"})
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, calls.Load(), "mutating operations must never be cached")
}

func TestCachingExecutor_BurstDeduplication(t *testing.T) {
	reg := NewRegistry(nil)

	var calls atomic.Int32
	reg.Register(NewFuncTool(OpInstanceStatus, "slow status",
		func(ctx context.Context, params map[string]any) (json.RawMessage, error) {
			calls.Add(1)
			time.Sleep(30 * time.Millisecond)
			return json.Marshal(map[string]string{"state": StateRunning})
		}))

	exec := newCachingExecutor(t, reg)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := exec.Execute(ctx, OpInstanceStatus, map[string]any{"instance_id": "i-0abc123"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load(), "parallel fan-out on one key must compute once")
}
