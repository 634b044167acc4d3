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
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ystia/jobsub/jobspec"
	"github.com/ystia/jobsub/log"
)

// hyperparameterKeys may also be given through environment variables named after them
// without the JOBSUB_ prefix, as in the plain sbatch wrappers (network=yolov2 size=512 ...)
var hyperparameterKeys = []string{"network", "size", "num_epochs", "num_gpus", "batch_size", "stage2_image_size", "learning_rate", "delayed_stage2_start"}

var jobKeys = append([]string{"name", "entrypoint", "dataset",
	"nodes", "cores", "memory", "time_limit", "partition", "gpu_type", "gpu_count",
	"working_dir", "output", "setup", "env", "extra_options"}, hyperparameterKeys...)

// setJobFlags registers the flags describing a job on a command and binds them
// to the given viper, which must be specific to this command.
//
// No viper default is set for job keys, so an unset flag never hides a value from the job file.
func setJobFlags(c *cobra.Command, v *viper.Viper) {
	v.SetEnvPrefix("jobsub")
	v.AutomaticEnv()

	c.Flags().StringP("job", "j", "", "YAML file describing the job, flags and environment take precedence over it")

	c.Flags().String("name", "", "Slurm job name (default is <network>_<size>)")
	c.Flags().String("entrypoint", jobspec.DefaultEntrypoint, "Training command")
	c.Flags().String("dataset", jobspec.DefaultDataset, "Dataset name")

	c.Flags().String("network", jobspec.DefaultNetwork, "Network name")
	c.Flags().Int("size", jobspec.DefaultSize, "Input size")
	c.Flags().Int("num_epochs", jobspec.DefaultNumEpochs, "Number of epochs")
	c.Flags().Int("num_gpus", jobspec.DefaultNumGPUs, "Number of GPUs used by the training")
	c.Flags().Int("batch_size", jobspec.DefaultBatchSize, "Batch size")
	c.Flags().Int("stage2_image_size", jobspec.DefaultStage2ImageSize, "Stage 2 image size")
	c.Flags().Float64("learning_rate", jobspec.DefaultLearningRate, "Learning rate")
	c.Flags().Bool("delayed_stage2_start", bool(jobspec.DefaultDelayedStage2Start), "Delay the start of stage 2")

	c.Flags().Int("nodes", jobspec.DefaultNodes, "Number of nodes")
	c.Flags().Int("cores", jobspec.DefaultCores, "Number of cores per task")
	c.Flags().String("memory", jobspec.DefaultMemory, "Memory per node. Slurm units (32G, 32768) are binary, human sizes are not: 32GB is 32*10^9 bytes (30517M), use 32GiB for 32G")
	c.Flags().String("time_limit", jobspec.DefaultTimeLimit, "Time limit (e.g. 24:00:00, 1-12)")
	c.Flags().String("partition", jobspec.DefaultPartition, "Slurm partition")
	c.Flags().String("gpu_type", "", "GPU type constraint")
	c.Flags().Int("gpu_count", jobspec.DefaultGPUCount, "Number of GPUs requested per node")

	c.Flags().String("working_dir", "", "Working directory of the job on the cluster")
	c.Flags().String("output", jobspec.DefaultOutput, "Slurm output file pattern")
	c.Flags().StringArray("setup", nil, "Shell line run before the training command, may be repeated")
	c.Flags().StringToString("env", nil, "Environment variable exported before the training command (KEY=VALUE)")
	c.Flags().StringArray("extra_options", nil, "Additional sbatch option without leading dashes (e.g. exclusive, qos=high), may be repeated")

	v.BindPFlag("job", c.Flags().Lookup("job"))
	for _, k := range jobKeys {
		v.BindPFlag(k, c.Flags().Lookup(k))
		v.BindEnv(k)
	}
	for _, k := range hyperparameterKeys {
		v.BindEnv(k, "JOBSUB_"+strings.ToUpper(k), k)
	}
}

func castInt(v *viper.Viper, key string) (int, error) {
	i, err := cast.ToIntE(v.Get(key))
	return i, errors.Wrapf(err, "invalid value for %q", key)
}

func castFloat(v *viper.Viper, key string) (float64, error) {
	f, err := cast.ToFloat64E(v.Get(key))
	return f, errors.Wrapf(err, "invalid value for %q", key)
}

// getLines returns a list of lines given either as repeated flags or as a
// single newline separated value (environment variables).
//
// Lines are never split on spaces or commas, both are common in shell lines and sbatch options.
func getLines(v *viper.Viper, key string) ([]string, error) {
	switch val := v.Get(key).(type) {
	case string:
		var lines []string
		for _, l := range strings.Split(val, "\n") {
			if strings.TrimSpace(l) != "" {
				lines = append(lines, strings.TrimRight(l, "\r"))
			}
		}
		return lines, nil
	case []string:
		return val, nil
	default:
		lines, err := cast.ToStringSliceE(val)
		return lines, errors.Wrapf(err, "invalid value for %q", key)
	}
}

func castBool(v *viper.Viper, key string) (bool, error) {
	b, err := cast.ToBoolE(v.Get(key))
	return b, errors.Wrapf(err, "invalid value for %q", key)
}

// getJobSpec builds the JobSpec from defaults, the job file then environment and flags
func getJobSpec(v *viper.Viper) (*jobspec.JobSpec, error) {
	spec := jobspec.Default()
	if jobFile := v.GetString("job"); jobFile != "" {
		var err error
		spec, err = jobspec.Load(jobFile)
		if err != nil {
			return nil, err
		}
		log.Debugf("Job loaded from %q", jobFile)
	}

	var err error
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) && err == nil {
			*dst, err = castInt(v, key)
		}
	}

	setString("name", &spec.Name)
	setString("entrypoint", &spec.Entrypoint)
	setString("dataset", &spec.Dataset)

	setString("network", &spec.Network)
	setInt("size", &spec.Size)
	setInt("num_epochs", &spec.NumEpochs)
	setInt("num_gpus", &spec.NumGPUs)
	setInt("batch_size", &spec.BatchSize)
	setInt("stage2_image_size", &spec.Stage2ImageSize)
	if v.IsSet("learning_rate") && err == nil {
		spec.LearningRate, err = castFloat(v, "learning_rate")
	}
	if v.IsSet("delayed_stage2_start") && err == nil {
		var b bool
		b, err = castBool(v, "delayed_stage2_start")
		spec.DelayedStage2Start = jobspec.Switch(b)
	}

	setInt("nodes", &spec.Resources.Nodes)
	setInt("cores", &spec.Resources.Cores)
	setString("memory", &spec.Resources.Memory)
	setString("time_limit", &spec.Resources.TimeLimit)
	setString("partition", &spec.Resources.Partition)
	setString("gpu_type", &spec.Resources.GPUType)
	setInt("gpu_count", &spec.Resources.GPUCount)

	setString("working_dir", &spec.WorkingDir)
	setString("output", &spec.Output)
	if v.IsSet("setup") && err == nil {
		spec.Setup, err = getLines(v, "setup")
	}
	if v.IsSet("env") {
		env := v.GetStringMapString("env")
		if spec.Env == nil {
			spec.Env = make(map[string]string, len(env))
		}
		for k, val := range env {
			spec.Env[k] = val
		}
	}
	if v.IsSet("extra_options") && err == nil {
		spec.ExtraOptions, err = getLines(v, "extra_options")
	}
	if err != nil {
		return nil, err
	}
	return spec, nil
}
