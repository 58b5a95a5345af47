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

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the job store's contents by state",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	states := []store.JobState{
		store.StatePending, store.StateDownloading, store.StateCompleted,
		store.StateFailed, store.StateSkipped,
	}

	var totalBytes int64
	for _, state := range states {
		jobs, err := st.ListJobs(state, 0)
		if err != nil {
			return err
		}
		var bytes int64
		for _, j := range jobs {
			bytes += j.BytesDownloaded
		}
		if state == store.StateCompleted {
			totalBytes = bytes
		}
		fmt.Printf("%-12s %6d jobs  %10s\n", state, len(jobs), humanize.Bytes(uint64(bytes)))
	}
	fmt.Printf("\ntotal completed: %s\n", humanize.Bytes(uint64(totalBytes)))
	return nil
}
