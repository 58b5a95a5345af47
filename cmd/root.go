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

// Package cmd wires the orchestration engine's components together behind a
// cobra-based CLI: one mutating command (download) and a handful of
// read-only inspection commands over the Job Store.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/common"
)

var (
	runID         string
	logLevelRaw   string
	storePathFlag string
)

var rootCmd = &cobra.Command{
	Use:     "audiosync",
	Short:   "Download audio attachments out of a chat group's message history",
	Version: common.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if runID == "" {
			runID = common.GetEnvironmentVariable(common.EEnvironmentVariable.SessionName())
		}
		if runID == "" {
			runID = "audiosync"
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&runID, "run-id", "", "identifier used for this run's log file (defaults to the session name)")
	rootCmd.PersistentFlags().StringVar(&logLevelRaw, "log-level", "INFO", "NONE, ERROR, WARN, INFO, or DEBUG")
	rootCmd.PersistentFlags().StringVar(&storePathFlag, "store", "", "path to the job store sqlite file (defaults to .audiosync.db in the download directory: download's --output, else AUDIOSYNC_DOWNLOAD_DIR)")
}

// Execute runs the CLI, exiting the process with a non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseLogLevel(raw string) common.LogLevel {
	switch raw {
	case "NONE":
		return common.LogNone
	case "ERROR":
		return common.LogError
	case "WARN":
		return common.LogWarning
	case "DEBUG":
		return common.LogDebug
	default:
		return common.LogInfo
	}
}

func openStore(outputDir string) (string, error) {
	path := storePathFlag
	if path == "" {
		path = outputDir + string(os.PathSeparator) + ".audiosync.db"
	}
	return path, nil
}
