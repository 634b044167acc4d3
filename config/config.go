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

// Package config defines configuration structures
package config

import (
	"time"

	"github.com/spf13/cast"
)

// DefaultWorkingDirectory is the default directory where jobsub keeps its local state
const DefaultWorkingDirectory = "~/.jobsub"

// DefaultTransport is the default way to reach the Slurm commands
const DefaultTransport = TransportLocal

// DefaultSSHPort is the default SSH port of the Slurm login node
const DefaultSSHPort = 22

// DefaultSSHTimeout is the default timeout to establish an SSH connection
const DefaultSSHTimeout = 30 * time.Second

const (
	// TransportLocal runs Slurm commands on the current host
	TransportLocal = "local"
	// TransportSSH runs Slurm commands on a login node over SSH
	TransportSSH = "ssh"
)

// Configuration holds config information filled by Cobra and Viper (see commands package for more information)
type Configuration struct {
	WorkingDirectory string
	DryRun           bool
	Cluster          DynamicMap
}

// DynamicMap allows to store configuration parameters that are not known in advance.
//
// It has methods to automatically cast data to the desired type.
type DynamicMap map[string]interface{}

// Keys returns registered keys in the dynamic map
func (dm DynamicMap) Keys() []string {
	keys := make([]string, 0, len(dm))
	for k := range dm {
		keys = append(keys, k)
	}
	return keys
}

// Set sets a value for a given key
func (dm DynamicMap) Set(name string, value interface{}) {
	dm[name] = value
}

// IsSet returns true if the given key exists in the map
func (dm DynamicMap) IsSet(name string) bool {
	_, ok := dm[name]
	return ok
}

// Get returns the raw value of a given configuration key
func (dm DynamicMap) Get(name string) interface{} {
	return dm[name]
}

// GetString returns the value of the given key casted into a string.
// An empty string is returned if not found.
func (dm DynamicMap) GetString(name string) string {
	return cast.ToString(dm[name])
}

// GetStringOrDefault returns the value of the given key casted into a string.
// The given default value is returned if not found.
func (dm DynamicMap) GetStringOrDefault(name, defaultValue string) string {
	if res := dm.GetString(name); res != "" {
		return res
	}
	return defaultValue
}

// GetInt returns the value of the given key casted into an int.
// 0 is returned if not found.
func (dm DynamicMap) GetInt(name string) int {
	return cast.ToInt(dm[name])
}

// GetIntOrDefault returns the value of the given key casted into an int.
// The given default value is returned if not found or zero.
func (dm DynamicMap) GetIntOrDefault(name string, defaultValue int) int {
	if res := dm.GetInt(name); res != 0 {
		return res
	}
	return defaultValue
}

// GetDuration returns the value of the given key casted into a Duration.
// A 0 duration is returned if not found.
func (dm DynamicMap) GetDuration(name string) time.Duration {
	return cast.ToDuration(dm[name])
}

// GetDurationOrDefault returns the value of the given key casted into a Duration.
// The given default value is returned if not found or zero.
func (dm DynamicMap) GetDurationOrDefault(name string, defaultValue time.Duration) time.Duration {
	if res := dm.GetDuration(name); res != 0 {
		return res
	}
	return defaultValue
}
