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
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/helper/sshutil"
	"github.com/ystia/jobsub/history"
	"github.com/ystia/jobsub/jobspec"
	"github.com/ystia/jobsub/log"
	"github.com/ystia/jobsub/prov/slurm"
)

// submitViper holds the job settings of the submit command
var submitViper = viper.New()

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a training job",
	Long: `Render the batch script of a training job and submit it with sbatch.

The job is built from defaults, then the job file given with --job,
then environment variables and finally command-line flags.
The scheduler answer is printed as is when the job is rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig(cfgViper)
		cfg.DryRun = submitViper.GetBool("dry_run")
		spec, err := getJobSpec(submitViper)
		if err != nil {
			return err
		}
		var client sshutil.Client
		if !cfg.DryRun {
			client, err = slurm.GetClient(cfg)
			if err != nil {
				return err
			}
			if c, ok := client.(io.Closer); ok {
				defer c.Close()
			}
		}
		opts := submitOptions{
			wait:     submitViper.GetBool("wait"),
			interval: submitViper.GetDuration("wait_interval"),
		}
		return submitJob(cmd.Context(), cmd.OutOrStdout(), cfg, client, spec, opts)
	},
}

func init() {
	RootCmd.AddCommand(submitCmd)
	setJobFlags(submitCmd, submitViper)
	submitCmd.Flags().Bool("dry_run", false, "Print the batch script and the submission command without running them")
	submitCmd.Flags().BoolP("wait", "w", false, "Wait for the job to terminate")
	submitCmd.Flags().Duration("wait_interval", slurm.DefaultMonitoringTimeInterval, "Delay between two job status checks when waiting")
	submitViper.BindPFlag("dry_run", submitCmd.Flags().Lookup("dry_run"))
	submitViper.BindPFlag("wait", submitCmd.Flags().Lookup("wait"))
	submitViper.BindPFlag("wait_interval", submitCmd.Flags().Lookup("wait_interval"))
	submitViper.SetDefault("wait_interval", slurm.DefaultMonitoringTimeInterval)
}

type submitOptions struct {
	wait     bool
	interval time.Duration
}

func submitJob(ctx context.Context, out io.Writer, cfg config.Configuration, client sshutil.Client, spec *jobspec.JobSpec, opts submitOptions) error {
	if spec.NumGPUs != spec.Resources.GPUCount {
		log.Warnf("Training uses %d GPUs (num_gpus) while %d are requested (gpu_count)", spec.NumGPUs, spec.Resources.GPUCount)
	}

	submitter := slurm.NewSubmitter(client, cfg.Cluster)
	if cfg.DryRun {
		sub, err := submitter.Prepare(spec)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "# Batch script")
		fmt.Fprint(out, sub.Script)
		fmt.Fprintln(out, "# Submission command")
		fmt.Fprintln(out, sub.Command)
		return nil
	}

	hist, err := history.Open(cfg.WorkingDirectory)
	if err != nil {
		log.Warnf("Submission history disabled: %v", err)
	} else {
		defer hist.Close()
		if sub, err := submitter.Prepare(spec); err == nil {
			warnOnResubmission(ctx, hist, sub.ScriptHash)
		}
	}

	sub, err := submitter.Submit(ctx, spec)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Submitted batch job %s\n", sub.JobID)

	if hist != nil {
		_, err = hist.Record(ctx, history.Entry{
			JobID:      sub.JobID,
			JobName:    sub.JobName,
			ScriptHash: sub.ScriptHash,
			Host:       clusterHost(cfg),
		})
		if err != nil {
			log.Warnf("%v", err)
		}
	}

	if !opts.wait {
		return nil
	}
	info, err := submitter.Wait(ctx, sub.JobID, opts.interval)
	if info != nil {
		fmt.Fprintf(out, "Job %s terminated with state %s\n", info.ID, info.State)
	}
	return errors.Wrapf(err, "job %s", sub.JobID)
}

func warnOnResubmission(ctx context.Context, hist *history.Store, scriptHash string) {
	previous, err := hist.FindByScriptHash(ctx, scriptHash)
	if err != nil {
		log.Debugf("Failed to look for previous submissions: %v", err)
		return
	}
	if len(previous) > 0 {
		p := previous[0]
		log.Warnf("An identical batch script was already submitted %s as job %s (%d previous submissions)", humanize.Time(p.SubmittedAt), p.JobID, len(previous))
	}
}

func clusterHost(cfg config.Configuration) string {
	if cfg.Cluster.GetStringOrDefault("transport", config.DefaultTransport) == config.TransportSSH {
		return cfg.Cluster.GetString("url")
	}
	return "localhost"
}
