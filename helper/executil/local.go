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

package executil

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/ystia/jobsub/log"
)

// DefaultShell is the shell used by LocalClient when none is given
const DefaultShell = "bash"

// LocalClient runs commands on the local host through a shell.
//
// It satisfies the sshutil.Client interface so Slurm commands can be run
// either on a login node reached over SSH or directly on the current host.
type LocalClient struct {
	Shell string
}

// RunCommand runs cmd with "<shell> -c" and returns its combined stdout and stderr.
//
// The whole process group is killed if ctx is cancelled before the command completes.
func (c *LocalClient) RunCommand(ctx context.Context, cmd string) (string, error) {
	shell := c.Shell
	if shell == "" {
		shell = DefaultShell
	}
	var b bytes.Buffer
	execCmd := command(ctx, shell, "-c", cmd)
	execCmd.Stdout = &b
	execCmd.Stderr = &b
	log.Debugf("[LocalClient] %q", cmd)
	err := execCmd.Run()
	if ctx.Err() != nil {
		return b.String(), errors.Wrap(ctx.Err(), "command cancelled")
	}
	return b.String(), err
}
