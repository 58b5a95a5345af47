package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastore/audiosync/governor"
)

type fakeGovernor struct {
	target int
}

func (f *fakeGovernor) Target() int            { return f.target }
func (f *fakeGovernor) CanStart(int64) bool    { return true }
func (f *fakeGovernor) Run(ctx context.Context) { <-ctx.Done() }
func (f *fakeGovernor) OnMemoryPressure(func()) {}

var _ governor.Governor = (*fakeGovernor)(nil)

func TestAcquireRespectsTarget(t *testing.T) {
	a := assert.New(t)
	gov := &fakeGovernor{target: 1}
	s := New(gov, 4)

	ctx := context.Background()
	ok, err := s.Acquire(ctx, "a")
	require.NoError(t, err)
	a.True(ok)
	a.Equal(1, s.InFlight())

	ctx2, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	ok2, err2 := s.Acquire(ctx2, "b")
	a.False(ok2)
	a.Error(err2) // deadline exceeded: target of 1 already held

	s.Release("a")
	a.Equal(0, s.InFlight())
}

func TestAcquireRejectsDuplicateInFlight(t *testing.T) {
	a := assert.New(t)
	gov := &fakeGovernor{target: 4}
	s := New(gov, 4)

	ctx := context.Background()
	ok1, err1 := s.Acquire(ctx, "dup")
	require.NoError(t, err1)
	a.True(ok1)

	ok2, err2 := s.Acquire(ctx, "dup")
	require.NoError(t, err2)
	a.False(ok2)

	s.Release("dup")
}

func TestReleaseIsIdempotentForUnknownID(t *testing.T) {
	gov := &fakeGovernor{target: 4}
	s := New(gov, 4)
	s.Release("never-acquired")
	assert.Equal(t, 0, s.InFlight())
}
