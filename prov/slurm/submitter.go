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

// Package slurm submits, inspects and cancels jobs on a Slurm cluster.
package slurm

import (
	"context"
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/helper/sshutil"
	"github.com/ystia/jobsub/jobspec"
	"github.com/ystia/jobsub/log"
)

var batchOutputRegexp = regexp.MustCompile(`Submitted batch job (\d+)`)

// Submitter hands batch scripts to sbatch and queries the scheduler about them
type Submitter struct {
	client  sshutil.Client
	envFile string
}

// Submission is a rendered job, with its scheduler ID once submitted
type Submission struct {
	JobID      string
	JobName    string
	Script     string
	ScriptHash string
	Command    string
}

// NewSubmitter returns a Submitter running Slurm commands with the given client.
//
// When the cluster configuration defines an env_file it is sourced before each sbatch call.
func NewSubmitter(client sshutil.Client, cluster config.DynamicMap) *Submitter {
	return &Submitter{client: client, envFile: cluster.GetString("env_file")}
}

// Prepare validates the JobSpec and renders the batch script and the command submitting it,
// without running anything.
func (s *Submitter) Prepare(spec *jobspec.JobSpec) (*Submission, error) {
	if err := spec.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid job definition")
	}
	script, err := spec.BatchScript()
	if err != nil {
		return nil, errors.Wrap(err, "failed to render batch script")
	}
	return &Submission{
		JobName:    spec.JobName(),
		Script:     script,
		ScriptHash: fmt.Sprintf("%x", sha256.Sum256([]byte(script))),
		Command:    s.wrapCommand(script),
	}, nil
}

// Submit renders the JobSpec and submits it with sbatch.
//
// A rejection by the scheduler is returned as a *SubmissionError holding its output verbatim.
// Nothing is retried.
func (s *Submitter) Submit(ctx context.Context, spec *jobspec.JobSpec) (*Submission, error) {
	sub, err := s.Prepare(spec)
	if err != nil {
		return nil, err
	}
	log.Debugf("Submitting job %q with command: %q", sub.JobName, sub.Command)
	output, err := s.client.RunCommand(ctx, sub.Command)
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), "job submission cancelled")
	}
	if err != nil {
		log.Debugf("sbatch output:%q", output)
		return nil, &SubmissionError{Cmd: sub.Command, Output: output, Err: err}
	}
	if sub.JobID, err = parseJobIDFromBatchOutput(output); err != nil {
		return nil, &SubmissionError{Cmd: sub.Command, Output: output, Err: err}
	}
	log.Debugf("JobID:%q", sub.JobID)
	return sub, nil
}

// wrapCommand passes the batch script to sbatch through a quoted here-document,
// so nothing in the script is expanded by the submitting shell.
func (s *Submitter) wrapCommand(script string) string {
	var cmd string
	if s.envFile != "" {
		cmd = fmt.Sprintf("[ -f %[1]s ] && { source %[1]s ; } ;", s.envFile)
	}
	return cmd + fmt.Sprintf("sbatch <<'%[1]s'\n%[2]s%[1]s", jobspec.ScriptDelimiter, script)
}

func parseJobIDFromBatchOutput(output string) (string, error) {
	m := batchOutputRegexp.FindStringSubmatch(output)
	if m == nil {
		return "", errors.Errorf("unable to find a job ID in sbatch output")
	}
	return m[1], nil
}
