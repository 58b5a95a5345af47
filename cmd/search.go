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
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/store"
)

var (
	searchState string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search completed/in-progress jobs by title or performer",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchState, "state", "", "restrict to one job state (PENDING, DOWNLOADING, COMPLETED, FAILED, SKIPPED)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 50, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.ToLower(args[0])

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

	jobs, err := st.ListJobs(store.JobState(searchState), 0)
	if err != nil {
		return err
	}

	matched := 0
	for _, j := range jobs {
		if matched >= searchLimit {
			break
		}
		if !strings.Contains(strings.ToLower(j.Title), query) && !strings.Contains(strings.ToLower(j.Performer), query) {
			continue
		}
		fmt.Printf("%s\t%-10s %s - %s (%s)\n", j.RemoteFileID, j.State, j.Performer, j.Title, humanize.Bytes(uint64(j.DeclaredSize)))
		matched++
	}
	return nil
}
