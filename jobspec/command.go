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
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Flag is a training program option rendered as --name=value
type Flag struct {
	Name  string
	Value string
}

// String renders the flag, shell-quoted only when the value holds characters the shell would interpret
func (f Flag) String() string {
	return shellquote.Join("--" + f.Name + "=" + f.Value)
}

// Flags returns one flag per hyperparameter, always in the same order
func (h Hyperparameters) Flags() []Flag {
	return []Flag{
		{"network", h.Network},
		{"size", strconv.Itoa(h.Size)},
		{"num_epochs", strconv.Itoa(h.NumEpochs)},
		{"num_gpus", strconv.Itoa(h.NumGPUs)},
		{"batch_size", strconv.Itoa(h.BatchSize)},
		{"stage2_image_size", strconv.Itoa(h.Stage2ImageSize)},
		{"learning_rate", FormatFloat(h.LearningRate)},
		{"delayed_stage2_start", h.DelayedStage2Start.String()},
	}
}

// CommandLine renders the training program invocation:
//
//	<entrypoint> <dataset> --network=<v> --size=<v> ... --delayed_stage2_start=<v>
//
// The entrypoint is kept verbatim so it may hold an interpreter and a script path.
func (s *JobSpec) CommandLine() string {
	parts := []string{s.Entrypoint, shellquote.Join(s.Dataset)}
	for _, f := range s.Flags() {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, " ")
}

// FormatFloat renders a float the way a user would write it on a command line.
//
// Values lower than 1 use the compact exponent notation (1e-3, 2.5e-4) when it is
// strictly shorter than the decimal one, the decimal notation is used otherwise.
func FormatFloat(v float64) string {
	dec := strconv.FormatFloat(v, 'f', -1, 64)
	if v >= 1 || v <= -1 || v == 0 {
		return dec
	}
	exp := strconv.FormatFloat(v, 'e', -1, 64)
	idx := strings.IndexByte(exp, 'e')
	n, err := strconv.Atoi(exp[idx+1:])
	if err != nil {
		return dec
	}
	exp = exp[:idx] + "e" + strconv.Itoa(n)
	if len(exp) < len(dec) {
		return exp
	}
	return dec
}
