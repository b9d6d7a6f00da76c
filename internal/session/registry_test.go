package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
)

type fakeEngine struct {
	id string
}

func (f *fakeEngine) Call(ctx context.Context, prompt string) (string, error) { return f.id, nil }

func (f *fakeEngine) Stream(ctx context.Context, prompt string, opts agent.StreamOptions) (agent.EventStream, error) {
	return nil, errors.New("not implemented")
}

func countingFactory(n *atomic.Int32) Factory {
	return func(caseID string) (agent.Engine, error) {
		i := n.Add(1)
		return &fakeEngine{id: fmt.Sprintf("%s-%d", caseID, i)}, nil
	}
}

func TestResolveReturnsSameInstance(t *testing.T) {
	var built atomic.Int32
	r, err := NewRegistry(countingFactory(&built), 0, zap.NewNop())
	require.NoError(t, err)

	a, err := r.Resolve("k1")
	require.NoError(t, err)
	b, err := r.Resolve("k1")
	require.NoError(t, err)
	c, err := r.Resolve("k2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, int32(2), built.Load())
	assert.Equal(t, 2, r.Len())
}

func TestResolveEmptyCaseID(t *testing.T) {
	r, err := NewRegistry(countingFactory(new(atomic.Int32)), 0, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrEmptyCaseID)
}

func TestResolveConcurrentFirstUse(t *testing.T) {
	var built atomic.Int32
	release := make(chan struct{})
	factory := func(caseID string) (agent.Engine, error) {
		<-release
		built.Add(1)
		return &fakeEngine{id: caseID}, nil
	}
	r, err := NewRegistry(factory, 0, zap.NewNop())
	require.NoError(t, err)

	const callers = 32
	engines := make([]agent.Engine, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := r.Resolve("shared")
			assert.NoError(t, err)
			engines[i] = e
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), built.Load())
	for _, e := range engines {
		assert.Same(t, engines[0], e)
	}
}

func TestResetBuildsFreshSession(t *testing.T) {
	var built atomic.Int32
	r, err := NewRegistry(countingFactory(&built), 0, zap.NewNop())
	require.NoError(t, err)

	a, _ := r.Resolve("k")
	assert.True(t, r.Reset("k"))
	assert.False(t, r.Reset("k"))
	b, _ := r.Resolve("k")

	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), built.Load())
}

func TestFailedConstructionIsRetried(t *testing.T) {
	var calls atomic.Int32
	factory := func(caseID string) (agent.Engine, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("model unavailable")
		}
		return &fakeEngine{id: caseID}, nil
	}
	r, err := NewRegistry(factory, 0, zap.NewNop())
	require.NoError(t, err)

	_, err = r.Resolve("k")
	require.Error(t, err)
	assert.Zero(t, r.Len())

	e, err := r.Resolve("k")
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestBoundedRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	var built atomic.Int32
	r, err := NewRegistry(countingFactory(&built), 2, zap.NewNop())
	require.NoError(t, err)

	a, _ := r.Resolve("a")
	_, _ = r.Resolve("b")
	_, _ = r.Resolve("a")
	_, _ = r.Resolve("c")

	assert.Equal(t, 2, r.Len())
	again, _ := r.Resolve("a")
	assert.Same(t, a, again)

	_, _ = r.Resolve("b")
	assert.Equal(t, int32(4), built.Load())
}
