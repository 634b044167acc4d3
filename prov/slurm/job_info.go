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

package slurm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ystia/jobsub/log"
)

// DefaultMonitoringTimeInterval is the default delay between two job status checks while waiting for a job
const DefaultMonitoringTimeInterval = 5 * time.Second

var jobIDRegexp = regexp.MustCompile(`^\d+(_\d+)?$`)

// JobInfo holds the information returned by scontrol about a job
type JobInfo struct {
	ID        string
	Name      string
	State     string
	Reason    string
	RunTime   string
	TimeLimit string
	Partition string
	NodeList  string
	StdOut    string
	StdErr    string
	Raw       map[string]string
}

// IsTerminated returns true when the job won't change state anymore
func (ji *JobInfo) IsTerminated() bool {
	switch ji.State {
	case "RUNNING", "PENDING", "COMPLETING", "CONFIGURING", "SIGNALING", "RESIZING", "REQUEUED", "SUSPENDED", "STAGE_OUT":
		return false
	}
	return true
}

// IsSuccessful returns true when the job completed successfully
func (ji *JobInfo) IsSuccessful() bool {
	return ji.State == "COMPLETED"
}

func checkJobID(jobID string) error {
	if !jobIDRegexp.MatchString(jobID) {
		return errors.Errorf("invalid job ID %q", jobID)
	}
	return nil
}

// Status returns the scheduler information about a job
func (s *Submitter) Status(ctx context.Context, jobID string) (*JobInfo, error) {
	if err := checkJobID(jobID); err != nil {
		return nil, err
	}
	cmd := fmt.Sprintf("scontrol show job %s", jobID)
	output, err := s.client.RunCommand(ctx, cmd)
	if err != nil {
		if strings.Contains(output, "Invalid job id specified") {
			return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q", jobID)}
		}
		return nil, errors.Wrapf(err, "failed to get information for job %q: %s", jobID, strings.TrimSpace(output))
	}
	return parseJobInfo(jobID, output)
}

func parseJobInfo(jobID, output string) (*JobInfo, error) {
	raw := make(map[string]string)
	for _, token := range strings.Fields(output) {
		if idx := strings.IndexByte(token, '='); idx > 0 {
			raw[token[:idx]] = token[idx+1:]
		}
	}
	if raw["JobId"] == "" {
		if strings.TrimSpace(output) == "" {
			return nil, &noJobFound{msg: fmt.Sprintf("no information found for job with id:%q", jobID)}
		}
		return nil, errors.Errorf("unexpected scontrol output for job %q: %q", jobID, output)
	}
	return &JobInfo{
		ID:        raw["JobId"],
		Name:      raw["JobName"],
		State:     raw["JobState"],
		Reason:    raw["Reason"],
		RunTime:   raw["RunTime"],
		TimeLimit: raw["TimeLimit"],
		Partition: raw["Partition"],
		NodeList:  raw["NodeList"],
		StdOut:    raw["StdOut"],
		StdErr:    raw["StdErr"],
		Raw:       raw,
	}, nil
}

// Wait polls the job status every interval until the job terminates.
//
// The last known JobInfo is returned. An error is returned if the job does not
// complete successfully or if ctx is cancelled.
func (s *Submitter) Wait(ctx context.Context, jobID string, interval time.Duration) (*JobInfo, error) {
	if interval <= 0 {
		interval = DefaultMonitoringTimeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var previousState string
	for {
		info, err := s.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if info.State != previousState {
			if info.Reason != "" && info.Reason != "None" {
				log.Printf("Job Name:%s, ID:%s, State:%s, Reason:%s, Execution Time:%s", info.Name, info.ID, info.State, info.Reason, info.RunTime)
			} else {
				log.Printf("Job Name:%s, ID:%s, State:%s, Execution Time:%s", info.Name, info.ID, info.State, info.RunTime)
			}
			previousState = info.State
		}
		if info.IsTerminated() {
			if !info.IsSuccessful() {
				return info, errors.Errorf("job with ID:%q finished unsuccessfully with state:%q", jobID, info.State)
			}
			return info, nil
		}
		select {
		case <-ctx.Done():
			return info, errors.Wrap(ctx.Err(), "stopped waiting for job")
		case <-ticker.C:
		}
	}
}

// Cancel cancels a job with scancel
func (s *Submitter) Cancel(ctx context.Context, jobID string) error {
	if err := checkJobID(jobID); err != nil {
		return err
	}
	output, err := s.client.RunCommand(ctx, fmt.Sprintf("scancel %s", jobID))
	if err != nil {
		return errors.Wrapf(err, "failed to cancel job %q: %s", jobID, strings.TrimSpace(output))
	}
	return nil
}
