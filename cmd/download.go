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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/cache"
	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/discovery"
	"github.com/wastore/audiosync/events"
	"github.com/wastore/audiosync/governor"
	"github.com/wastore/audiosync/pacer"
	"github.com/wastore/audiosync/scheduler"
	"github.com/wastore/audiosync/store"
	"github.com/wastore/audiosync/transfer"
)

var (
	downloadLimit    int
	downloadOutput   string
	downloadParallel int
)

var downloadCmd = &cobra.Command{
	Use:   "download <group>",
	Short: "Enumerate a group's message history and download every audio attachment",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	downloadCmd.Flags().IntVar(&downloadLimit, "limit", 0, "maximum number of audio attachments to consider (0 = no limit)")
	downloadCmd.Flags().StringVar(&downloadOutput, "output", "", "directory completed files are written under (defaults to AUDIOSYNC_DOWNLOAD_DIR)")
	downloadCmd.Flags().IntVar(&downloadParallel, "parallel", 0, "initial concurrency target (defaults to AUDIOSYNC_INITIAL_CONCURRENT_DOWNLOADS)")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	groupRef := args[0]
	requestID := uuid.NewString()

	outputDir := downloadOutput
	if outputDir == "" {
		outputDir = common.GetEnvironmentVariable(common.EEnvironmentVariable.DownloadDir())
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return common.NewFilesystemError(err)
	}

	logFolder := common.GetEnvironmentVariable(common.EEnvironmentVariable.LogLocation())
	if logFolder == "" {
		logFolder = outputDir
	}
	logger := common.NewRunLogger(runID, parseLogLevel(logLevelRaw), logFolder)
	logger.OpenLog()
	defer logger.CloseLog()
	logger.Log(common.LogInfo, fmt.Sprintf("request %s: starting download of %s", requestID, groupRef))

	storePath, err := openStore(outputDir)
	if err != nil {
		return err
	}
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	idCache := cache.New(mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.IdentifierCacheCapacity()), cache.DefaultCapacity))
	if err := cache.SeedFromStore(idCache, st); err != nil {
		return err
	}

	minC := mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.MinConcurrentDownloads()), 1)
	maxC := mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.MaxConcurrentDownloads()), 8)
	initialC := downloadParallel
	if initialC == 0 {
		initialC = mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.InitialConcurrentDownloads()), 4)
	}
	reserveGB := mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.MinFreeDiskGB()), 1)
	checkInterval := mustAtoi(common.GetEnvironmentVariable(common.EEnvironmentVariable.CheckIntervalSeconds()), 5)

	watermarks := governor.Watermarks{
		CPUHigh: mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.CPUHigh()), common.DefaultCPUHighWatermark),
		CPULow:  mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.CPULow()), common.DefaultCPULowWatermark),
		MemHigh: mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.MemHigh()), common.DefaultMemHighWatermark),
		MemLow:  mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.MemLow()), common.DefaultMemLowWatermark),
	}

	gov := governor.New(outputDir, minC, initialC, maxC,
		governor.WithLogger(logger),
		governor.WithWatermarks(watermarks),
		governor.WithDiskReserve(int64(reserveGB)*common.GiB),
		governor.WithCheckInterval(time.Duration(checkInterval)*time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go gov.Run(notifyCtx)

	sch := scheduler.New(gov, maxC)

	rateInitial := mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.RateInitial()), 5)
	rateBurst := mustAtof(common.GetEnvironmentVariable(common.EEnvironmentVariable.RateBurst()), 10)
	pc := pacer.New(rateInitial, rateBurst, rateInitial*4)

	bus := events.New(256)
	var completedBytes atomic.Int64
	bus.Subscribe(events.SinkFunc(func(e events.Event) {
		switch e.Kind {
		case events.KindCompleted:
			completedBytes.Add(e.BytesDownloaded)
			logger.Log(common.LogInfo, fmt.Sprintf("completed %s (%s)", e.RemoteFileID, humanize.Bytes(uint64(e.BytesDownloaded))))
		case events.KindFailed:
			logger.Log(common.LogWarning, fmt.Sprintf("failed %s: %v", e.RemoteFileID, e.Err))
		case events.KindRateLimited:
			logger.Log(common.LogDebug, fmt.Sprintf("rate limited %s: retry after %s", e.RemoteFileID, e.RetryAfter))
		case events.KindResourcePressure:
			logger.Log(common.LogWarning, fmt.Sprintf("deferred %s: insufficient free disk space", e.RemoteFileID))
		case events.KindRecovered:
			logger.Log(common.LogInfo, fmt.Sprintf("self-heal resubmitted %s", e.RemoteFileID))
		}
	}))

	client, err := NewRemoteClient(
		common.GetEnvironmentVariable(common.EEnvironmentVariable.APIID()),
		common.GetEnvironmentVariable(common.EEnvironmentVariable.APIHash()),
		common.GetEnvironmentVariable(common.EEnvironmentVariable.SessionName()),
	)
	if err != nil {
		return err
	}

	engine := transfer.New(st, sch, gov, pc, bus, client, idCache, transfer.WithLogger(logger))
	pipeline := discovery.New(client, st, idCache, engine, bus, outputDir)

	if healed, err := pipeline.SelfHeal(notifyCtx); err != nil {
		logger.Log(common.LogWarning, "self-heal sweep failed: "+err.Error())
	} else if healed > 0 {
		logger.Log(common.LogInfo, fmt.Sprintf("self-heal: resubmitted %d job(s)", healed))
	}

	submitted, err := pipeline.Run(notifyCtx, groupRef, downloadLimit)
	if err != nil {
		return err
	}

	fmt.Printf("submitted %d job(s), %s downloaded\n", submitted, humanize.Bytes(uint64(completedBytes.Load())))
	return nil
}

func mustAtoi(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func mustAtof(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return f
}
