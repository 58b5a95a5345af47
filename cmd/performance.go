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
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/store"
)

var performanceCmd = &cobra.Command{
	Use:   "performance",
	Short: "Report recent throughput and retry activity from the job store",
	RunE:  runPerformance,
}

func init() {
	rootCmd.AddCommand(performanceCmd)
}

func runPerformance(cmd *cobra.Command, args []string) error {
	outputDir := common.GetEnvironmentVariable(common.EEnvironmentVariable.DownloadDir())
	storePath, err := openStore(outputDir)
	if err != nil {
		return err
	}
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	completed, err := st.ListJobs(store.StateCompleted, 0)
	if err != nil {
		return err
	}
	failed, err := st.ListJobs(store.StateFailed, 0)
	if err != nil {
		return err
	}

	var totalBytes int64
	var totalAttempts int
	var oldest, newest time.Time
	for i, j := range completed {
		totalBytes += j.BytesDownloaded
		totalAttempts += j.AttemptCount
		if i == 0 || j.UpdatedAt.Before(oldest) {
			oldest = j.UpdatedAt
		}
		if i == 0 || j.UpdatedAt.After(newest) {
			newest = j.UpdatedAt
		}
	}

	fmt.Printf("completed: %d job(s), %s\n", len(completed), humanize.Bytes(uint64(totalBytes)))
	if len(completed) > 0 {
		fmt.Printf("average attempts per completed job: %.2f\n", float64(totalAttempts)/float64(len(completed)))
		if span := newest.Sub(oldest); span > 0 {
			fmt.Printf("throughput over observed span: %s/s\n", humanize.Bytes(uint64(float64(totalBytes)/span.Seconds())))
		}
	}
	fmt.Printf("currently failed (retryable or terminal): %d job(s)\n", len(failed))
	return nil
}
