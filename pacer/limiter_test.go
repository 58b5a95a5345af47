package pacer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightForSize(t *testing.T) {
	a := assert.New(t)

	a.Equal(1.0, WeightForSize(1024*1024)) // 1 MiB -> below floor
	a.InDelta(2.0, WeightForSize(20*1024*1024), 0.01)
}

func TestAcquireSpendsTokens(t *testing.T) {
	a := assert.New(t)

	p := New(1000, 10, 2000)
	a.NoError(p.Acquire(context.Background(), 1))
}

func TestAdjustBacksOffOnFloodWait(t *testing.T) {
	a := assert.New(t)

	p := New(10, 10, 100)
	before := p.Rate()

	p.Adjust(5)
	after := p.Rate()

	a.Less(after, before)
	a.InDelta(before*floodBackoff, after, 0.01)
}

func TestAdjustGrowsOnCleanCall(t *testing.T) {
	a := assert.New(t)

	p := New(10, 10, 100)
	before := p.Rate()

	p.Adjust(0)
	after := p.Rate()

	a.Greater(after, before)
	a.LessOrEqual(after, 100.0)
}

func TestAdjustNeverExceedsCeiling(t *testing.T) {
	a := assert.New(t)

	p := New(95, 10, 100)
	for i := 0; i < 5; i++ {
		p.Adjust(0)
	}
	a.LessOrEqual(p.Rate(), 100.0)
}

func TestAdjustNeverGoesBelowMinRate(t *testing.T) {
	a := assert.New(t)

	p := New(0.2, 10, 100)
	for i := 0; i < 5; i++ {
		p.Adjust(1)
	}
	a.GreaterOrEqual(p.Rate(), minRate)
}
