package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestManagerSupersedesSameKey(t *testing.T) {
	m := NewRequestManager()
	key := RequestKey{Scope: "s1", Method: "get", URL: "http://x/operator/schedules"}

	first, doneFirst := m.Start(context.Background(), key)
	second, doneSecond := m.Start(context.Background(), key)

	require.Error(t, first.Err())
	assert.True(t, errors.Is(context.Cause(first), errSuperseded))
	assert.True(t, cancelledByManager(first))
	assert.NoError(t, second.Err())
	assert.Equal(t, 1, m.InFlight())

	// the superseded call finishing must not unregister the newer one
	doneFirst()
	assert.Equal(t, 1, m.InFlight())
	doneSecond()
	assert.Zero(t, m.InFlight())
}

func TestRequestManagerCancelScope(t *testing.T) {
	m := NewRequestManager()
	a, doneA := m.Start(context.Background(), RequestKey{Scope: "tab-a", Method: "GET", URL: "/routes"})
	defer doneA()
	b, doneB := m.Start(context.Background(), RequestKey{Scope: "tab-a", Method: "GET", URL: "/buses"})
	defer doneB()
	c, doneC := m.Start(context.Background(), RequestKey{Scope: "tab-b", Method: "GET", URL: "/routes"})
	defer doneC()

	assert.Equal(t, 2, m.CancelScope("tab-a"))
	assert.Error(t, a.Err())
	assert.Error(t, b.Err())
	assert.NoError(t, c.Err())
	assert.Equal(t, 1, m.InFlight())
	assert.Zero(t, m.CancelScope("tab-a"))
}

func TestRequestManagerCancelAndCancelAll(t *testing.T) {
	m := NewRequestManager()
	key := RequestKey{Method: "POST", URL: "/schedules"}
	ctx, done := m.Start(context.Background(), key)
	defer done()

	assert.True(t, m.Cancel(key))
	assert.True(t, errors.Is(context.Cause(ctx), errAbandoned))
	assert.False(t, m.Cancel(key))

	_, d1 := m.Start(context.Background(), RequestKey{URL: "/a"})
	defer d1()
	_, d2 := m.Start(context.Background(), RequestKey{URL: "/b"})
	defer d2()
	assert.Equal(t, 2, m.CancelAll())
	assert.Zero(t, m.InFlight())
}

func TestRequestManagerParentCancellationIsNotManaged(t *testing.T) {
	m := NewRequestManager()
	parent, cancel := context.WithCancel(context.Background())
	ctx, done := m.Start(parent, RequestKey{URL: "/routes"})
	defer done()

	cancel()
	require.Error(t, ctx.Err())
	assert.False(t, cancelledByManager(ctx))
}
