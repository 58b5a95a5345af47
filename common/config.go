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

import (
	"os"
	"strconv"
)

// EnvironmentVariable documents one recognized configuration key, with the
// default applied when it is absent from the environment.
type EnvironmentVariable struct {
	Name         string
	DefaultValue string
	Description  string
	Hidden       bool
}

// GetEnvironmentVariable returns the variable's value, or its default if unset.
func GetEnvironmentVariable(v EnvironmentVariable) string {
	if value := os.Getenv(v.Name); value != "" {
		return value
	}
	return v.DefaultValue
}

// ClearEnvironmentVariable unsets the variable in the process environment.
func ClearEnvironmentVariable(v EnvironmentVariable) {
	_ = os.Unsetenv(v.Name)
}

// VisibleEnvironmentVariables lists every key recognized by this binary.
// Keep it updated when a new EnvironmentVariable method is added below.
var VisibleEnvironmentVariables = []EnvironmentVariable{
	EEnvironmentVariable.APIID(),
	EEnvironmentVariable.APIHash(),
	EEnvironmentVariable.SessionName(),
	EEnvironmentVariable.DownloadDir(),
	EEnvironmentVariable.MaxConcurrentDownloads(),
	EEnvironmentVariable.MinConcurrentDownloads(),
	EEnvironmentVariable.InitialConcurrentDownloads(),
	EEnvironmentVariable.CPUHigh(),
	EEnvironmentVariable.CPULow(),
	EEnvironmentVariable.MemHigh(),
	EEnvironmentVariable.MemLow(),
	EEnvironmentVariable.RateInitial(),
	EEnvironmentVariable.RateBurst(),
	EEnvironmentVariable.MaxMemoryMB(),
	EEnvironmentVariable.MinFreeDiskGB(),
	EEnvironmentVariable.CheckIntervalSeconds(),
	EEnvironmentVariable.PerDownloadTimeoutSeconds(),
	EEnvironmentVariable.IdentifierCacheCapacity(),
	EEnvironmentVariable.LogLocation(),
	EEnvironmentVariable.UserAgentPrefix(),
}

var EEnvironmentVariable = EnvironmentVariable{}

func (EnvironmentVariable) APIID() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_API_ID", Description: "Remote collaborator API ID."}
}

func (EnvironmentVariable) APIHash() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_API_HASH", Description: "Remote collaborator API hash.", Hidden: true}
}

func (EnvironmentVariable) SessionName() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_SESSION_NAME", DefaultValue: "audiosync", Description: "Name of the persisted client session."}
}

func (EnvironmentVariable) DownloadDir() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_DOWNLOAD_DIR", DefaultValue: "./downloads", Description: "Library root that completed files and .partial sidecars are written under."}
}

func (EnvironmentVariable) MaxConcurrentDownloads() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MAX_CONCURRENT_DOWNLOADS", DefaultValue: "8", Description: "Upper bound the Resource Governor's concurrency hill-climb will not exceed."}
}

func (EnvironmentVariable) MinConcurrentDownloads() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MIN_CONCURRENT_DOWNLOADS", DefaultValue: "1", Description: "Lower bound the Resource Governor's concurrency hill-climb will not go below."}
}

func (EnvironmentVariable) InitialConcurrentDownloads() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_INITIAL_CONCURRENT_DOWNLOADS", DefaultValue: "4", Description: "Concurrency target the scheduler starts a run at, before the governor adjusts it."}
}

func (EnvironmentVariable) CPUHigh() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_CPU_HIGH", DefaultValue: strconv.Itoa(DefaultCPUHighWatermark), Description: "CPU% above which the governor reduces the concurrency target."}
}

func (EnvironmentVariable) CPULow() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_CPU_LOW", DefaultValue: strconv.Itoa(DefaultCPULowWatermark), Description: "CPU% below which the governor raises the concurrency target."}
}

func (EnvironmentVariable) MemHigh() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MEM_HIGH", DefaultValue: strconv.Itoa(DefaultMemHighWatermark), Description: "Memory% above which the governor reduces the concurrency target."}
}

func (EnvironmentVariable) MemLow() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MEM_LOW", DefaultValue: strconv.Itoa(DefaultMemLowWatermark), Description: "Memory% below which the governor raises the concurrency target."}
}

func (EnvironmentVariable) RateInitial() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_RATE_INITIAL", DefaultValue: "5", Description: "Starting token bucket fill rate, in requests per second."}
}

func (EnvironmentVariable) RateBurst() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_RATE_BURST", DefaultValue: "10", Description: "Token bucket burst capacity."}
}

func (EnvironmentVariable) MaxMemoryMB() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MAX_MEMORY_MB", DefaultValue: "2048", Description: "Soft RSS ceiling, in MiB. The download command does not read it, so the governor's memory-pressure check stays off."}
}

func (EnvironmentVariable) MinFreeDiskGB() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_MIN_FREE_DISK_GB", DefaultValue: "1", Description: "Disk reserve the pre-download gate keeps free beyond a job's declared size."}
}

func (EnvironmentVariable) CheckIntervalSeconds() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_CHECK_INTERVAL_SECONDS", DefaultValue: "5", Description: "Sampling interval for the Resource Governor's CPU/memory/disk probes."}
}

func (EnvironmentVariable) PerDownloadTimeoutSeconds() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_PER_DOWNLOAD_TIMEOUT_SECONDS", DefaultValue: "3600", Description: "Per-download timeout, in seconds. No component reads it; a job's stream step runs without a deadline."}
}

func (EnvironmentVariable) IdentifierCacheCapacity() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_IDENTIFIER_CACHE_CAPACITY", DefaultValue: "50000", Description: "Maximum entries retained by the Identifier Cache's LRU."}
}

func (EnvironmentVariable) LogLocation() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_LOG_LOCATION", Description: "Overrides where run log files are stored."}
}

func (EnvironmentVariable) UserAgentPrefix() EnvironmentVariable {
	return EnvironmentVariable{Name: "AUDIOSYNC_USER_AGENT_PREFIX", Description: "Prefix added to the default user agent string sent to the remote collaborator."}
}
