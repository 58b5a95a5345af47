// Copyright © 2025 Microsoft <wastore@microsoft.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package governor implements the Resource Governor: it samples CPU,
// memory, and free disk, derives a target concurrency level, and gates new
// downloads against available disk space.
package governor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/wastore/audiosync/common"
)

// Watermarks bound the concurrency hill-climb.
type Watermarks struct {
	CPUHigh, CPULow float64
	MemHigh, MemLow float64
}

func DefaultWatermarks() Watermarks {
	return Watermarks{
		CPUHigh: common.DefaultCPUHighWatermark,
		CPULow:  common.DefaultCPULowWatermark,
		MemHigh: common.DefaultMemHighWatermark,
		MemLow:  common.DefaultMemLowWatermark,
	}
}

// Governor is the Resource Governor's public contract.
type Governor interface {
	// Target returns the current advisory concurrency level.
	Target() int
	// CanStart is the pre-download gate: true if free disk space under
	// libraryRoot covers declaredSize plus the configured reserve.
	CanStart(declaredSize int64) bool
	// Run samples at the configured interval until ctx is cancelled,
	// adjusting Target() after each sample.
	Run(ctx context.Context)
	// OnMemoryPressure registers a callback invoked when process RSS
	// crosses the soft ceiling; used to trigger a coalesced cleanup pass.
	OnMemoryPressure(cb func())
}

type governor struct {
	libraryRoot   string
	min, max      int
	target        int64 // atomic
	watermarks    Watermarks
	checkInterval time.Duration
	reserveBytes  int64
	softMemMB     uint64

	pressureCb func()
	logger     common.ILogger
}

type Option func(*governor)

func WithWatermarks(w Watermarks) Option { return func(g *governor) { g.watermarks = w } }
func WithCheckInterval(d time.Duration) Option {
	return func(g *governor) { g.checkInterval = d }
}
func WithDiskReserve(bytes int64) Option { return func(g *governor) { g.reserveBytes = bytes } }
func WithSoftMemCeilingMB(mb uint64) Option {
	return func(g *governor) { g.softMemMB = mb }
}
func WithLogger(l common.ILogger) Option { return func(g *governor) { g.logger = l } }

// New builds a Governor whose target starts at initial and is kept within
// [min, max].
func New(libraryRoot string, min, initial, max int, opts ...Option) Governor {
	g := &governor{
		libraryRoot:   libraryRoot,
		min:           min,
		max:           max,
		target:        int64(initial),
		watermarks:    DefaultWatermarks(),
		checkInterval: 5 * time.Second,
		reserveBytes:  common.DefaultDiskReserveBytes,
		logger:        common.NullLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *governor) Target() int {
	return int(atomic.LoadInt64(&g.target))
}

func (g *governor) CanStart(declaredSize int64) bool {
	usage, err := disk.Usage(g.libraryRoot)
	if err != nil {
		g.logger.Log(common.LogWarning, "governor: disk usage probe failed: "+err.Error())
		return false
	}
	return int64(usage.Free) >= declaredSize+g.reserveBytes
}

func (g *governor) OnMemoryPressure(cb func()) {
	g.pressureCb = cb
}

func (g *governor) Run(ctx context.Context) {
	ticker := time.NewTicker(g.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sample()
		}
	}
}

func (g *governor) sample() {
	cpuPct, err := sampleCPUPercent(g.checkInterval)
	if err != nil {
		g.logger.Log(common.LogWarning, "governor: cpu sample failed: "+err.Error())
		return
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		g.logger.Log(common.LogWarning, "governor: mem sample failed: "+err.Error())
		return
	}

	current := g.Target()
	next := current

	switch {
	case cpuPct > g.watermarks.CPUHigh:
		next = max(g.min, current-1)
	case cpuPct < g.watermarks.CPULow && current < g.max:
		next = current + 1
	}

	switch {
	case vm.UsedPercent > g.watermarks.MemHigh:
		next = max(g.min, next-1)
	case vm.UsedPercent < g.watermarks.MemLow && next < g.max:
		next = next + 1
	}

	if next != current {
		atomic.StoreInt64(&g.target, int64(next))
		g.logger.Log(common.LogDebug, "governor: target adjusted")
	}

	if g.softMemMB > 0 && g.pressureCb != nil {
		if procRSSMB() > g.softMemMB {
			g.pressureCb()
		}
	}
}

func sampleCPUPercent(interval time.Duration) (float64, error) {
	percents, err := cpu.Percent(interval, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
