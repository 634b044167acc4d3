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

// Package jobspec describes a GPU training job and renders it as a Slurm batch script.
//
// A JobSpec is built once per invocation from defaults, an optional YAML file,
// the environment and command-line flags. It is then rendered into a resource
// request block (#SBATCH directives) and a single command line carrying every
// hyperparameter as a --name=value flag.
package jobspec

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Default values of a JobSpec
const (
	DefaultEntrypoint         = "python train_standard.py"
	DefaultDataset            = "vedai"
	DefaultNetwork            = "yolov2"
	DefaultSize               = 512
	DefaultNumEpochs          = 50
	DefaultNumGPUs            = 4
	DefaultBatchSize          = 4
	DefaultStage2ImageSize    = 256
	DefaultLearningRate       = 1e-3
	DefaultDelayedStage2Start = Switch(true)

	DefaultNodes     = 1
	DefaultCores     = 8
	DefaultMemory    = "32G"
	DefaultTimeLimit = "24:00:00"
	DefaultPartition = "gpu"
	DefaultGPUCount  = 4
	DefaultOutput    = "%x-%j.out"
)

// Switch is a boolean-like value rendered as 1 or 0
type Switch bool

// String returns "1" when the switch is on, "0" otherwise
func (s Switch) String() string {
	if s {
		return "1"
	}
	return "0"
}

// UnmarshalYAML accepts any value spf13/cast knows how to turn into a boolean (1, "0", true, "false"...)
func (s *Switch) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	b, err := cast.ToBoolE(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid boolean-like value %v", raw)
	}
	*s = Switch(b)
	return nil
}

// Hyperparameters are the training program options, each one is rendered as a --name=value flag
type Hyperparameters struct {
	Network            string  `yaml:"network"`
	Size               int     `yaml:"size"`
	NumEpochs          int     `yaml:"num_epochs"`
	NumGPUs            int     `yaml:"num_gpus"`
	BatchSize          int     `yaml:"batch_size"`
	Stage2ImageSize    int     `yaml:"stage2_image_size"`
	LearningRate       float64 `yaml:"learning_rate"`
	DelayedStage2Start Switch  `yaml:"delayed_stage2_start"`
}

// Resources is the cluster resource request of a job
type Resources struct {
	Nodes     int    `yaml:"nodes"`
	Cores     int    `yaml:"cores"`
	Memory    string `yaml:"memory"`
	TimeLimit string `yaml:"time_limit"`
	Partition string `yaml:"partition"`
	GPUType   string `yaml:"gpu_type"`
	GPUCount  int    `yaml:"gpu_count"`
}

// JobSpec is the complete description of one training run
type JobSpec struct {
	Name            string            `yaml:"name"`
	Entrypoint      string            `yaml:"entrypoint"`
	Dataset         string            `yaml:"dataset"`
	Hyperparameters `yaml:",inline"`
	Resources       Resources         `yaml:"resources"`
	WorkingDir      string            `yaml:"working_dir"`
	Output          string            `yaml:"output"`
	Setup           []string          `yaml:"setup"`
	Env             map[string]string `yaml:"env"`
	ExtraOptions    []string          `yaml:"extra_options"`
}

// Default returns a JobSpec filled with default values
func Default() *JobSpec {
	return &JobSpec{
		Entrypoint: DefaultEntrypoint,
		Dataset:    DefaultDataset,
		Hyperparameters: Hyperparameters{
			Network:            DefaultNetwork,
			Size:               DefaultSize,
			NumEpochs:          DefaultNumEpochs,
			NumGPUs:            DefaultNumGPUs,
			BatchSize:          DefaultBatchSize,
			Stage2ImageSize:    DefaultStage2ImageSize,
			LearningRate:       DefaultLearningRate,
			DelayedStage2Start: DefaultDelayedStage2Start,
		},
		Resources: Resources{
			Nodes:     DefaultNodes,
			Cores:     DefaultCores,
			Memory:    DefaultMemory,
			TimeLimit: DefaultTimeLimit,
			Partition: DefaultPartition,
			GPUCount:  DefaultGPUCount,
		},
		Output: DefaultOutput,
	}
}

// JobName returns the Slurm job name, "<network>_<size>" when no name is set
func (s *JobSpec) JobName() string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("%s_%d", s.Network, s.Size)
}
