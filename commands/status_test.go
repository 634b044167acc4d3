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
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/helper/sshutil"
	"github.com/ystia/jobsub/history"
	"github.com/ystia/jobsub/prov/slurm"
)

func TestDisplayJobsStatus(t *testing.T) {
	t.Parallel()
	outputs := map[string]string{
		"scontrol show job 6260": readSlurmTestData(t, "scontrol_running.txt"),
		"scontrol show job 6261": readSlurmTestData(t, "scontrol_failed.txt"),
		"scontrol show job 6262": readSlurmTestData(t, "scontrol_completed.txt"),
	}
	client := &sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		if out, ok := outputs[cmd]; ok {
			return out, nil
		}
		return "slurm_load_jobs error: Invalid job id specified", errors.New("Process exited with status 1")
	}}
	submitter := slurm.NewSubmitter(client, config.DynamicMap{})

	var out bytes.Buffer
	require.NoError(t, displayJobsStatus(context.Background(), &out, submitter, []string{"6262", "6260", "6261", "999"}, false))
	lines := strings.Split(out.String(), "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "62") || strings.Contains(l, "999") {
			rows = append(rows, l)
		}
	}
	require.Len(t, rows, 4, "output: %s", out.String())
	assert.Contains(t, rows[0], "COMPLETED")
	assert.Contains(t, rows[1], "RUNNING")
	assert.Contains(t, rows[1], "gpu-node-03")
	assert.Contains(t, rows[2], "FAILED")
	assert.Contains(t, rows[2], "NonZeroExitCode")
	assert.Contains(t, rows[3], "UNKNOWN")
	assert.NotContains(t, out.String(), "Output:")
}

func TestDisplayJobsStatusSingleJob(t *testing.T) {
	t.Parallel()
	running := readSlurmTestData(t, "scontrol_running.txt")
	client := &sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return running, nil
	}}
	var out bytes.Buffer
	require.NoError(t, displayJobsStatus(context.Background(), &out, slurm.NewSubmitter(client, config.DynamicMap{}), []string{"6260"}, false))
	assert.NotContains(t, out.String(), "Time Limit ", "no column headers")
	assert.NotContains(t, out.String(), "Reason:", "no pending reason for a running job")
	assert.NotContains(t, out.String(), "Error:", "same file as output")
	for _, line := range []string{"Job ID:", "State:", "Nodes:", "Output:"} {
		assert.Contains(t, out.String(), line)
	}
	assert.Regexp(t, `Output:\s+/home/jdoe/yolov2_512-6260\.out`, out.String())
	assert.Regexp(t, `State:\s+RUNNING`, out.String())
	assert.Regexp(t, `Nodes:\s+gpu-node-03`, out.String())
	assert.Equal(t, []string{"scontrol show job 6260"}, client.Commands())
}

func TestJobInfoTable(t *testing.T) {
	t.Parallel()
	table := jobInfoTable(&slurm.JobInfo{ID: "6261", State: "PENDING", Reason: "Resources", StdOut: "/home/jdoe/a.out", StdErr: "/home/jdoe/a.err"}, false)
	assert.Equal(t, 10, table.Len())
	assert.Regexp(t, `Reason:\s+Resources`, table.Render())
	assert.Regexp(t, `Error:\s+/home/jdoe/a\.err`, table.Render())

	table = jobInfoTable(&slurm.JobInfo{ID: "6262", State: "UNKNOWN"}, false)
	assert.Equal(t, 7, table.Len())
	assert.NotContains(t, table.Render(), "Output:")
}

func TestDisplayJobsStatusError(t *testing.T) {
	t.Parallel()
	client := &sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return "ssh: connection refused", errors.New("Process exited with status 255")
	}}
	var out bytes.Buffer
	err := displayJobsStatus(context.Background(), &out, slurm.NewSubmitter(client, config.DynamicMap{}), []string{"6260", "6261"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	err = displayJobsStatus(context.Background(), &out, slurm.NewSubmitter(client, config.DynamicMap{}), []string{"not-a-job"}, false)
	assert.Error(t, err)
}

func TestGetColoredJobState(t *testing.T) {
	t.Parallel()
	for _, state := range []string{"RUNNING", "COMPLETED", "FAILED", "UNKNOWN"} {
		assert.Equal(t, state, getColoredJobState(false, state))
		assert.Contains(t, getColoredJobState(true, state), state)
	}
}

func TestDisplayHistory(t *testing.T) {
	t.Parallel()
	hist, err := history.Open(t.TempDir())
	require.NoError(t, err)
	defer hist.Close()
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, displayHistory(ctx, &out, hist, 10))
	assert.Equal(t, "No submission recorded yet\n", out.String())

	now := time.Now()
	_, err = hist.Record(ctx, history.Entry{JobID: "6260", JobName: "yolov2_512", ScriptHash: "0123456789abcdef0123", Host: "login01", SubmittedAt: now.Add(-2 * time.Hour)})
	require.NoError(t, err)
	_, err = hist.Record(ctx, history.Entry{JobID: "6261", JobName: "yolov3_608", ScriptHash: "fedcba9876543210fedc", Host: "login01", SubmittedAt: now.Add(-time.Minute)})
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, displayHistory(ctx, &out, hist, 1))
	assert.Contains(t, out.String(), "6261")
	assert.Contains(t, out.String(), "fedcba987654")
	assert.NotContains(t, out.String(), "fedcba9876543210fedc")
	assert.NotContains(t, out.String(), "6260")
	assert.Contains(t, out.String(), "ago")
}
