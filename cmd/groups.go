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

	"github.com/spf13/cobra"

	"github.com/wastore/audiosync/common"
	"github.com/wastore/audiosync/store"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List every group recorded in the job store",
	RunE:  runGroups,
}

func init() {
	rootCmd.AddCommand(groupsCmd)
}

func runGroups(cmd *cobra.Command, args []string) error {
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

	groups, err := st.ListGroups()
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%d\t%s\t%s\t%d job(s)\n", g.RemoteID, g.Title, g.Handle, len(g.Jobs))
	}
	return nil
}
