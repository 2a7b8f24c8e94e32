package agent_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/opscrew/agent"
	"github.com/BaSui01/opscrew/testutil/mocks"
)

func TestNew_RequiresProvider(t *testing.T) {
	_, err := agent.New(agent.Config{Role: "Infrastructure Specialist"}, nil, nil)
	assert.ErrorIs(t, err, agent.ErrProviderNotSet)
}

func TestNew_RequiresRole(t *testing.T) {
	_, err := agent.New(agent.Config{}, mocks.NewProvider(), nil)
	require.Error(t, err)
}

func TestExecute(t *testing.T) {
	provider := mocks.NewProvider().WithResponse("instances healthy")
	a, err := agent.New(agent.Config{
		Role: "Infrastructure Specialist",
		Goal: "keep infrastructure healthy",
	}, provider, nil)
	require.NoError(t, err)

	out, err := a.Execute(context.Background(), "check production status")
	require.NoError(t, err)
	assert.Equal(t, "instances healthy", out)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Messages, 2)
	assert.Contains(t, calls[0].Messages[0].Content, "Infrastructure Specialist")
	assert.Contains(t, calls[0].Messages[0].Content, "keep infrastructure healthy")
	assert.Equal(t, "check production status", calls[0].Messages[1].Content)
}

func TestExecute_ProviderError(t *testing.T) {
	cause := errors.New("upstream down")
	a, err := agent.New(agent.Config{Role: "Security Specialist"},
		mocks.NewProvider().WithError(cause), nil)
	require.NoError(t, err)

	_, err = a.Execute(context.Background(), "scan")
	require.Error(t, err)

	var execErr *agent.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "Security Specialist", execErr.Role)
	assert.ErrorIs(t, err, cause)
}

func TestExecute_EmptyTask(t *testing.T) {
	a, err := agent.New(agent.Config{Role: "Security Specialist"}, mocks.NewProvider(), nil)
	require.NoError(t, err)

	_, err = a.Execute(context.Background(), "   ")
	assert.ErrorIs(t, err, agent.ErrEmptyTask)
}

func TestExecute_Timeout(t *testing.T) {
	provider := mocks.NewProvider().WithDelay(200 * time.Millisecond)
	a, err := agent.New(agent.Config{
		Role:    "Monitoring Specialist",
		Timeout: 20 * time.Millisecond,
	}, provider, nil)
	require.NoError(t, err)

	_, err = a.Execute(context.Background(), "collect metrics")
	require.Error(t, err)

	var execErr *agent.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecuteAsync(t *testing.T) {
	a, err := agent.New(agent.Config{Role: "Deployment Specialist"},
		mocks.NewProvider().WithResponse("rollout ok"), nil)
	require.NoError(t, err)

	exec := a.ExecuteAsync(context.Background(), "deploy v2.1.0")
	out, err := exec.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "rollout ok", out)
}

func TestExecuteAsync_Cancel(t *testing.T) {
	provider := mocks.NewProvider().WithDelay(time.Second)
	a, err := agent.New(agent.Config{Role: "Deployment Specialist", Timeout: 5 * time.Second},
		provider, nil)
	require.NoError(t, err)

	exec := a.ExecuteAsync(context.Background(), "deploy v2.1.0")
	exec.Cancel()

	_, err = exec.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "canceled"), "unexpected error: %v", err)
}

func TestExecuteAsync_IndependentCancellation(t *testing.T) {
	provider := mocks.NewProvider().WithDelay(50 * time.Millisecond).WithResponse("done")
	a, err := agent.New(agent.Config{Role: "Monitoring Specialist", Timeout: 5 * time.Second},
		provider, nil)
	require.NoError(t, err)

	first := a.ExecuteAsync(context.Background(), "task one")
	second := a.ExecuteAsync(context.Background(), "task two")
	first.Cancel()

	out, err := second.Wait(context.Background())
	require.NoError(t, err, "canceling one execution must not affect a sibling")
	assert.Equal(t, "done", out)
}
