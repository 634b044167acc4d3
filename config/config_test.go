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

package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDynamicMap_Get(t *testing.T) {
	t.Parallel()
	type args struct {
		name string
	}
	tests := []struct {
		name   string
		inputs DynamicMap
		args   args
		want   interface{}
	}{
		{name: "TestString", inputs: DynamicMap{"s": "res", "S1": 1}, args: args{"s"}, want: "res"},
		{name: "TestInt", inputs: DynamicMap{"s": "res", "S1": 1}, args: args{"S1"}, want: 1},
		{name: "TestNil", inputs: DynamicMap{"s": "res", "S1": 1}, args: args{"S4"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inputs.Get(tt.args.name); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DynamicMap.Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDynamicMap_GetString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		inputs DynamicMap
		key    string
		want   string
	}{
		{name: "TestString", inputs: DynamicMap{"s": "res", "S1": 1}, key: "s", want: "res"},
		{name: "TestInt", inputs: DynamicMap{"s": "res", "S1": 1}, key: "S1", want: "1"},
		{name: "TestNil", inputs: DynamicMap{"s": "res", "S1": 1}, key: "S4", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inputs.GetString(tt.key); got != tt.want {
				t.Errorf("DynamicMap.GetString() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDynamicMap_GetStringOrDefault(t *testing.T) {
	t.Parallel()
	dm := DynamicMap{"url": "login01", "empty": ""}
	assert.Equal(t, "login01", dm.GetStringOrDefault("url", "localhost"))
	assert.Equal(t, "localhost", dm.GetStringOrDefault("empty", "localhost"))
	assert.Equal(t, "localhost", dm.GetStringOrDefault("missing", "localhost"))
}

func TestDynamicMap_GetInt(t *testing.T) {
	t.Parallel()
	dm := DynamicMap{"port": "2222", "other_port": 23}
	assert.Equal(t, 2222, dm.GetInt("port"))
	assert.Equal(t, 23, dm.GetIntOrDefault("other_port", DefaultSSHPort))
	assert.Equal(t, DefaultSSHPort, dm.GetIntOrDefault("missing", DefaultSSHPort))
}

func TestDynamicMap_GetDuration(t *testing.T) {
	t.Parallel()
	dm := DynamicMap{"ssh_timeout": "10s"}
	assert.Equal(t, 10*time.Second, dm.GetDuration("ssh_timeout"))
	assert.Equal(t, DefaultSSHTimeout, dm.GetDurationOrDefault("missing", DefaultSSHTimeout))
}

func TestDynamicMap_SetAndIsSet(t *testing.T) {
	t.Parallel()
	dm := DynamicMap{}
	assert.False(t, dm.IsSet("transport"))
	dm.Set("transport", TransportSSH)
	assert.True(t, dm.IsSet("transport"))
	assert.Equal(t, []string{"transport"}, dm.Keys())
}
