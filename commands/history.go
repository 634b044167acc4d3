// Copyright 2019 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ystia/jobsub/helper/tabutil"
	"github.com/ystia/jobsub/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past submissions",
	Long:  `List the jobs submitted from this host, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hist, err := history.Open(getConfig(cfgViper).WorkingDirectory)
		if err != nil {
			return err
		}
		defer hist.Close()
		return displayHistory(cmd.Context(), cmd.OutOrStdout(), hist, historyLimit)
	},
}

func init() {
	RootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultListLimit, "Maximum number of submissions to display")
}

func displayHistory(ctx context.Context, out io.Writer, hist *history.Store, limit int) error {
	entries, err := hist.List(ctx, limit)
	if err != nil {
		return err
	}
	table := tabutil.NewTable()
	table.AddHeaders("Submitted", "Job ID", "Name", "Host", "Script")
	for _, e := range entries {
		hash := e.ScriptHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		table.AddRow(humanize.Time(e.SubmittedAt), e.JobID, e.JobName, e.Host, hash)
	}
	if table.Len() == 0 {
		fmt.Fprintln(out, "No submission recorded yet")
		return nil
	}
	fmt.Fprintln(out, table.Render())
	return nil
}
