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

package jobspec

import (
	"fmt"
	"strings"

	"github.com/ystia/jobsub/helper/sizeutil"
)

const directivePrefix = "#SBATCH "

// Directives returns the sbatch options of the job resource request, without the "#SBATCH " prefix.
//
// Options are always rendered in the same order: job name, nodes, cores, memory, time limit,
// partition, GPUs, GPU type, output, working directory then extra options.
func (s *JobSpec) Directives() ([]string, error) {
	r := s.Resources
	mem, err := sizeutil.ToSlurmMemory(r.Memory)
	if err != nil {
		return nil, err
	}
	opts := []string{
		fmt.Sprintf("--job-name=%s", s.JobName()),
		fmt.Sprintf("--nodes=%d", r.Nodes),
		fmt.Sprintf("--cpus-per-task=%d", r.Cores),
		fmt.Sprintf("--mem=%s", mem),
	}
	if r.TimeLimit != "" {
		opts = append(opts, fmt.Sprintf("--time=%s", r.TimeLimit))
	}
	if r.Partition != "" {
		opts = append(opts, fmt.Sprintf("--partition=%s", r.Partition))
	}
	if r.GPUCount > 0 {
		opts = append(opts, fmt.Sprintf("--gres=gpu:%d", r.GPUCount))
	}
	if r.GPUType != "" {
		opts = append(opts, fmt.Sprintf("--constraint=%s", r.GPUType))
	}
	if s.Output != "" {
		opts = append(opts, fmt.Sprintf("--output=%s", s.Output))
	}
	if s.WorkingDir != "" {
		opts = append(opts, fmt.Sprintf("--chdir=%s", s.WorkingDir))
	}
	for _, opt := range s.ExtraOptions {
		opts = append(opts, "--"+strings.TrimLeft(opt, "-"))
	}
	return opts, nil
}

// ResourceBlock renders the resource request as #SBATCH lines, one per option
func (s *JobSpec) ResourceBlock() (string, error) {
	opts, err := s.Directives()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, opt := range opts {
		b.WriteString(directivePrefix)
		b.WriteString(opt)
		b.WriteString("\n")
	}
	return b.String(), nil
}
