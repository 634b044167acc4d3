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
	"io/ioutil"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Load reads a JobSpec from a YAML file.
//
// Keys absent from the file keep their default value.
func Load(path string) (*JobSpec, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to expand job file path %q", path)
	}
	data, err := ioutil.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read job file %q", p)
	}
	return Parse(data)
}

// Parse reads a JobSpec from YAML content, starting from default values
func Parse(data []byte) (*JobSpec, error) {
	spec := Default()
	if err := yaml.UnmarshalStrict(data, spec); err != nil {
		return nil, errors.Wrap(err, "failed to parse job definition")
	}
	return spec, nil
}
