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
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ystia/jobsub/helper/sshutil"
	"github.com/ystia/jobsub/helper/tabutil"
	"github.com/ystia/jobsub/prov/slurm"
)

// maxParallelStatus is the maximum number of scontrol commands run concurrently
const maxParallelStatus = 8

var statusCmd = &cobra.Command{
	Use:   "status <JobId>...",
	Short: "Get the status of jobs",
	Long: `Display the scheduler information about one or more jobs.
Job information is retrieved in parallel and displayed as a table.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closeClient, err := getClient()
		if err != nil {
			return err
		}
		defer closeClient()
		colorize := !noColor
		if colorize {
			defer color.Unset()
		}
		return displayJobsStatus(cmd.Context(), cmd.OutOrStdout(), slurm.NewSubmitter(client, getConfig(cfgViper).Cluster), args, colorize)
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func getClient() (sshutil.Client, func(), error) {
	client, err := slurm.GetClient(getConfig(cfgViper))
	if err != nil {
		return nil, nil, err
	}
	closeClient := func() {}
	if c, ok := client.(io.Closer); ok {
		closeClient = func() { c.Close() }
	}
	return client, closeClient, nil
}

func fetchJobsInfo(ctx context.Context, submitter *slurm.Submitter, jobIDs []string) ([]*slurm.JobInfo, error) {
	infos := make([]*slurm.JobInfo, len(jobIDs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStatus)
	for i, jobID := range jobIDs {
		i, jobID := i, jobID
		g.Go(func() error {
			info, err := submitter.Status(ctx, jobID)
			if err != nil {
				if slurm.IsNoJobFoundError(err) {
					infos[i] = &slurm.JobInfo{ID: jobID, State: "UNKNOWN"}
					return nil
				}
				return err
			}
			infos[i] = info
			return nil
		})
	}
	return infos, g.Wait()
}

func displayJobsStatus(ctx context.Context, out io.Writer, submitter *slurm.Submitter, jobIDs []string, colorize bool) error {
	infos, err := fetchJobsInfo(ctx, submitter, jobIDs)
	if err != nil {
		return err
	}
	if len(infos) == 1 {
		fmt.Fprintln(out, jobInfoTable(infos[0], colorize).Render())
		return nil
	}
	table := tabutil.NewTable()
	table.AddHeaders("Job ID", "Name", "State", "Reason", "Run Time", "Time Limit", "Partition", "Nodes")
	for _, info := range infos {
		table.AddRow(info.ID, info.Name, getColoredJobState(colorize, info.State), info.Reason, info.RunTime, info.TimeLimit, info.Partition, info.NodeList)
	}
	fmt.Fprintln(out, table.Render())
	return nil
}

// jobInfoTable displays a single job as properties, including its output files
func jobInfoTable(info *slurm.JobInfo, colorize bool) tabutil.Table {
	table := tabutil.NewKeyValueTable()
	table.AddRow("Job ID:", info.ID)
	table.AddRow("Name:", info.Name)
	table.AddRow("State:", getColoredJobState(colorize, info.State))
	if info.Reason != "" && info.Reason != "None" {
		table.AddRow("Reason:", info.Reason)
	}
	table.AddRow("Run Time:", info.RunTime)
	table.AddRow("Time Limit:", info.TimeLimit)
	table.AddRow("Partition:", info.Partition)
	table.AddRow("Nodes:", info.NodeList)
	if info.StdOut != "" {
		table.AddRow("Output:", info.StdOut)
	}
	if info.StdErr != "" && info.StdErr != info.StdOut {
		table.AddRow("Error:", info.StdErr)
	}
	return table
}

func getColoredJobState(colorize bool, state string) string {
	if !colorize {
		return state
	}
	switch strings.ToUpper(state) {
	case "FAILED", "CANCELLED", "TIMEOUT", "NODE_FAIL", "OUT_OF_MEMORY", "BOOT_FAIL", "DEADLINE", "PREEMPTED":
		return color.New(color.FgHiRed, color.Bold).SprintFunc()(state)
	case "COMPLETED":
		return color.New(color.FgHiGreen, color.Bold).SprintFunc()(state)
	case "UNKNOWN":
		return color.New(color.FgHiWhite, color.Bold).SprintFunc()(state)
	default:
		return color.New(color.FgHiYellow, color.Bold).SprintFunc()(state)
	}
}
