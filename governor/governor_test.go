package governor

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanStartGatesOnFreeDisk(t *testing.T) {
	a := assert.New(t)

	dir, err := os.MkdirTemp("", "governor-test")
	a.NoError(err)
	defer os.RemoveAll(dir)

	g := New(dir, 1, 4, 8, WithDiskReserve(0))

	// A declared size larger than the entire disk should never be startable.
	a.False(g.CanStart(1 << 62))
}

func TestTargetStartsAtInitial(t *testing.T) {
	a := assert.New(t)
	g := New(".", 1, 4, 8)
	a.Equal(4, g.Target())
}

func TestSampleAdjustsTargetWithinBounds(t *testing.T) {
	a := assert.New(t)

	g := New(".", 1, 4, 8).(*governor)

	// Simulate high CPU directly rather than depending on real load; the
	// memory watermarks are set so memory never moves the target.
	g.watermarks = Watermarks{CPUHigh: -1, CPULow: -2, MemHigh: 1000, MemLow: -1}
	// CPUHigh of -1 means any sampled cpu% is "high", forcing a decrease.
	g.sample()
	a.GreaterOrEqual(g.Target(), g.min)
	a.LessOrEqual(g.Target(), g.max)
}
