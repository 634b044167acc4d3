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
	"github.com/pkg/errors"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/helper/executil"
	"github.com/ystia/jobsub/helper/sshutil"
	"github.com/ystia/jobsub/log"
)

// GetClient returns the client used to run Slurm commands according to the cluster transport
func GetClient(cfg config.Configuration) (sshutil.Client, error) {
	transport := cfg.Cluster.GetStringOrDefault("transport", config.DefaultTransport)
	switch transport {
	case config.TransportLocal:
		log.Debug("Slurm commands will run on the local host")
		return &executil.LocalClient{}, nil
	case config.TransportSSH:
		client, err := sshutil.NewSSHClient(cfg.Cluster)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create SSH client for the Slurm login node")
		}
		log.Debugf("Slurm commands will run on %s@%s:%d", client.Config.User, client.Host, client.Port)
		return client, nil
	}
	return nil, errors.Errorf("unsupported cluster transport %q, expecting %q or %q", transport, config.TransportLocal, config.TransportSSH)
}

