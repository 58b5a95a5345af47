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

package common

const (
	// Base10Mega is used for anything expressed in networking-style throughput
	// units (e.g. Mbps), which are conventionally base-10. The size constants
	// below (file sizes, buffer budgets) use base-2 units.
	Base10Mega = 1000 * 1000

	MiB = 1024 * 1024
	GiB = 1024 * MiB

	// CheckpointInterval is how often, in bytes of a single transfer's
	// progress, the Transfer Engine persists bytes_downloaded to the Job
	// Store.
	CheckpointInterval = 1 * MiB

	// PartialFileSuffix marks a file still being streamed; renamed away on
	// successful completion.
	PartialFileSuffix = ".partial"

	// DefaultDiskReserveBytes is held back from the pre-download disk gate
	// so a run never drives the destination volume to zero free space.
	DefaultDiskReserveBytes = 1 * GiB

	// DefaultCPUHighWatermark / DefaultCPULowWatermark bound the Resource
	// Governor's concurrency hill-climb on CPU utilization percentage.
	DefaultCPUHighWatermark = 80
	DefaultCPULowWatermark  = 50

	// DefaultMemHighWatermark / DefaultMemLowWatermark do the same for
	// memory utilization percentage.
	DefaultMemHighWatermark = 85
	DefaultMemLowWatermark  = 70

	// DefaultDiscoveryBatchSize is how many submissions the Discovery
	// Pipeline makes between two "submitted a batch" log lines. Jobs are
	// still submitted one at a time; no grouped submission takes place.
	DefaultDiscoveryBatchSize = 20

	// DefaultBufferedBytesBudget bounds the bytes the Transfer Engine may
	// have buffered-but-unflushed across all concurrently running transfers
	// at once.
	DefaultBufferedBytesBudget = 64 * MiB
)
