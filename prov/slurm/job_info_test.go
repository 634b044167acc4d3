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
	"errors"
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/helper/sshutil"
)

func readTestData(t *testing.T, name string) string {
	b, err := ioutil.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return string(b)
}

func TestStatus(t *testing.T) {
	t.Parallel()
	running := readTestData(t, "scontrol_running.txt")
	var ranCmd string
	s := NewSubmitter(&sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		ranCmd = cmd
		return running, nil
	}}, config.DynamicMap{})

	info, err := s.Status(context.Background(), "6260")
	require.NoError(t, err)
	assert.Equal(t, "scontrol show job 6260", ranCmd)
	assert.Equal(t, "6260", info.ID)
	assert.Equal(t, "yolov2_512", info.Name)
	assert.Equal(t, "RUNNING", info.State)
	assert.Equal(t, "None", info.Reason)
	assert.Equal(t, "00:12:43", info.RunTime)
	assert.Equal(t, "1-00:00:00", info.TimeLimit)
	assert.Equal(t, "gpu", info.Partition)
	assert.Equal(t, "gpu-node-03", info.NodeList)
	assert.Equal(t, "/home/jdoe/yolov2_512-6260.out", info.StdOut)
	assert.Equal(t, "cpu=8,mem=32G,node=1,billing=8,gres/gpu=4", info.Raw["TRES"])
	assert.False(t, info.IsTerminated())
}

func TestStatusErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		jobID          string
		output         string
		err            error
		wantNoJobFound bool
	}{
		{"InvalidJobID", "12; rm -rf /", "", nil, false},
		{"UnknownJob", "999", "slurm_load_jobs error: Invalid job id specified\n", errors.New("exit 1"), true},
		{"EmptyOutput", "999", "", nil, true},
		{"MalformedOutput", "999", "MALFORMED", nil, false},
		{"CommandFailure", "999", "connection refused", errors.New("exit 255"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSubmitter(&sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
				return tt.output, tt.err
			}}, config.DynamicMap{})
			_, err := s.Status(context.Background(), tt.jobID)
			require.Error(t, err)
			assert.Equal(t, tt.wantNoJobFound, IsNoJobFoundError(err))
		})
	}
}

func TestJobInfoStates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		state      string
		terminated bool
		successful bool
	}{
		{"PENDING", false, false},
		{"RUNNING", false, false},
		{"COMPLETING", false, false},
		{"COMPLETED", true, true},
		{"FAILED", true, false},
		{"CANCELLED", true, false},
		{"TIMEOUT", true, false},
		{"OUT_OF_MEMORY", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			info := &JobInfo{State: tt.state}
			assert.Equal(t, tt.terminated, info.IsTerminated())
			assert.Equal(t, tt.successful, info.IsSuccessful())
		})
	}
}

func TestWait(t *testing.T) {
	t.Parallel()
	outputs := []string{
		readTestData(t, "scontrol_running.txt"),
		readTestData(t, "scontrol_running.txt"),
		readTestData(t, "scontrol_completed.txt"),
	}
	calls := 0
	client := &sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		out := outputs[calls]
		calls++
		return out, nil
	}}
	s := NewSubmitter(client, config.DynamicMap{})

	info, err := s.Wait(context.Background(), "6262", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", info.State)
	assert.Equal(t, []string{"scontrol show job 6262", "scontrol show job 6262", "scontrol show job 6262"}, client.Commands())
}

func TestWaitFailedJob(t *testing.T) {
	t.Parallel()
	failed := readTestData(t, "scontrol_failed.txt")
	s := NewSubmitter(&sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return failed, nil
	}}, config.DynamicMap{})

	info, err := s.Wait(context.Background(), "6261", time.Millisecond)
	require.Error(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "FAILED", info.State)
	assert.Equal(t, "NonZeroExitCode", info.Reason)
}

func TestWaitCancelled(t *testing.T) {
	t.Parallel()
	running := readTestData(t, "scontrol_running.txt")
	s := NewSubmitter(&sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return running, nil
	}}, config.DynamicMap{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	info, err := s.Wait(ctx, "6260", 10*time.Millisecond)
	require.Error(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "RUNNING", info.State)
}

func TestCancel(t *testing.T) {
	t.Parallel()
	client := &sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return "", nil
	}}
	s := NewSubmitter(client, config.DynamicMap{})
	require.NoError(t, s.Cancel(context.Background(), "6260"))
	require.NoError(t, s.Cancel(context.Background(), "6260_3"))
	assert.Error(t, s.Cancel(context.Background(), "abc"))
	assert.Equal(t, []string{"scancel 6260", "scancel 6260_3"}, client.Commands(), "invalid job ids are not sent")

	failing := NewSubmitter(&sshutil.MockSSHClient{MockRunCommand: func(cmd string) (string, error) {
		return "scancel: error: Kill job error on job id 6260: Access/permission denied", errors.New("exit 1")
	}}, config.DynamicMap{})
	err := failing.Cancel(context.Background(), "6260")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Access/permission denied")
}

func TestGetClient(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cluster config.DynamicMap
		wantSSH bool
		wantErr bool
	}{
		{"DefaultIsLocal", config.DynamicMap{}, false, false},
		{"Local", config.DynamicMap{"transport": "local"}, false, false},
		{"SSH", config.DynamicMap{"transport": "ssh", "url": "login01", "user_name": "jdoe", "password": "pwd"}, true, false},
		{"SSHWithoutCredentials", config.DynamicMap{"transport": "ssh", "url": "login01", "user_name": "jdoe"}, false, true},
		{"Unknown", config.DynamicMap{"transport": "carrier-pigeon"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := GetClient(config.Configuration{Cluster: tt.cluster})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, isSSH := client.(*sshutil.SSHClient)
			assert.Equal(t, tt.wantSSH, isSSH)
		})
	}
}
