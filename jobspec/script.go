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
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
)

const shebang = "#!/bin/bash"

// BatchScript renders the complete batch script: shebang, resource block,
// exported environment, setup lines and finally the training command line.
func (s *JobSpec) BatchScript() (string, error) {
	block, err := s.ResourceBlock()
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(shebang)
	b.WriteString("\n")
	b.WriteString(block)
	b.WriteString("\n")

	prologue := s.exports()
	prologue = append(prologue, s.Setup...)
	if len(prologue) > 0 {
		b.WriteString(strings.Join(prologue, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString(s.CommandLine())
	b.WriteString("\n")
	return b.String(), nil
}

func (s *JobSpec) exports() []string {
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	exports := make([]string, 0, len(keys))
	for _, k := range keys {
		exports = append(exports, "export "+k+"="+shellquote.Join(s.Env[k]))
	}
	return exports
}
