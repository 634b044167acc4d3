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
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ystia/jobsub/helper/sizeutil"
)

// ScriptDelimiter is the here-document delimiter used to pass the batch script to sbatch.
// No line of a valid batch script is equal to it.
const ScriptDelimiter = "EOF"

var (
	timeLimitRegexp = regexp.MustCompile(`^(\d+-\d+(:\d{1,2}){0,2}|\d+(:\d{1,2}){0,2})$`)
	envNameRegexp   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Validate checks the JobSpec can be rendered into a batch script that sbatch will parse.
//
// All problems are reported at once in a multierror.
func (s *JobSpec) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...interface{}) {
		errs = multierror.Append(errs, errors.Errorf(format, args...))
	}

	if strings.TrimSpace(s.Entrypoint) == "" {
		add("entrypoint is required")
	}
	if strings.TrimSpace(s.Dataset) == "" {
		add("dataset is required")
	}
	if strings.TrimSpace(s.Network) == "" {
		add("network is required")
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"size", s.Size},
		{"num_epochs", s.NumEpochs},
		{"num_gpus", s.NumGPUs},
		{"batch_size", s.BatchSize},
		{"stage2_image_size", s.Stage2ImageSize},
	} {
		if f.value <= 0 {
			add("%s must be a positive integer, got %d", f.name, f.value)
		}
	}
	if s.LearningRate <= 0 {
		add("learning_rate must be positive, got %v", s.LearningRate)
	}

	r := s.Resources
	if r.Nodes < 1 {
		add("nodes must be at least 1, got %d", r.Nodes)
	}
	if r.Cores < 1 {
		add("cores must be at least 1, got %d", r.Cores)
	}
	if r.GPUCount < 0 {
		add("gpu_count can't be negative, got %d", r.GPUCount)
	}
	if _, err := sizeutil.ToSlurmMemory(r.Memory); err != nil {
		errs = multierror.Append(errs, errors.Wrapf(err, "invalid memory %q", r.Memory))
	}
	if r.TimeLimit != "" && !isTimeLimit(r.TimeLimit) {
		add("invalid time_limit %q, expected one of MM, MM:SS, HH:MM:SS, D-HH, D-HH:MM, D-HH:MM:SS", r.TimeLimit)
	}

	for name, value := range map[string]string{
		"name": s.Name, "entrypoint": s.Entrypoint, "dataset": s.Dataset, "network": s.Network,
		"memory": r.Memory, "time_limit": r.TimeLimit, "partition": r.Partition, "gpu_type": r.GPUType,
		"working_dir": s.WorkingDir, "output": s.Output,
	} {
		if strings.ContainsAny(value, "\r\n") {
			add("%s must be a single line", name)
		}
	}
	// #SBATCH values are not quoted, sbatch stops reading an option at the first blank
	for name, value := range map[string]string{
		"name": s.JobName(), "partition": r.Partition, "gpu_type": r.GPUType,
		"working_dir": s.WorkingDir, "output": s.Output,
	} {
		if strings.ContainsAny(value, " \t") {
			add("%s %q can't contain whitespace", name, value)
		}
	}
	for _, opt := range s.ExtraOptions {
		if strings.ContainsAny(opt, "\r\n") {
			add("extra option %q must be a single line", opt)
		} else if strings.ContainsAny(opt, " \t") {
			add("extra option %q can't contain whitespace", opt)
		}
	}
	for _, line := range s.Setup {
		for _, l := range strings.Split(line, "\n") {
			if strings.TrimSpace(l) == ScriptDelimiter {
				add("setup line can't be %q", ScriptDelimiter)
			}
		}
	}
	for k, v := range s.Env {
		if !envNameRegexp.MatchString(k) {
			add("invalid environment variable name %q", k)
		}
		if strings.ContainsAny(v, "\r\n") {
			add("environment variable %s must be a single line", k)
		}
	}
	return errs.ErrorOrNil()
}

func isTimeLimit(t string) bool {
	switch strings.ToLower(t) {
	case "infinite", "unlimited":
		return true
	}
	return timeLimitRegexp.MatchString(t)
}
