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

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ystia/jobsub/log"
	"github.com/ystia/jobsub/prov/slurm"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <JobId>...",
	Short: "Cancel jobs",
	Long:  `Cancel one or more jobs with scancel.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, closeClient, err := getClient()
		if err != nil {
			return err
		}
		defer closeClient()
		return cancelJobs(cmd.Context(), cmd.OutOrStdout(), slurm.NewSubmitter(client, getConfig(cfgViper).Cluster), args)
	},
}

// cancelJobs requests the cancellation of every job even if some of them fail
func cancelJobs(ctx context.Context, out io.Writer, submitter *slurm.Submitter, jobIDs []string) error {
	var errs *multierror.Error
	for _, jobID := range jobIDs {
		if err := submitter.Cancel(ctx, jobID); err != nil {
			log.Errorf("Failed to cancel job %s: %v", jobID, err)
			errs = multierror.Append(errs, errors.Wrapf(err, "job %s", jobID))
			continue
		}
		fmt.Fprintf(out, "Cancellation of job %s requested\n", jobID)
	}
	return errs.ErrorOrNil()
}

func init() {
	RootCmd.AddCommand(cancelCmd)
}
