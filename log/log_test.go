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

package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetDebug(false)
	defer SetDebug(false)

	Printf("submitted %s", "1234")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "submitted 1234")

	buf.Reset()
	Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debugf("visible %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG]")
	assert.Contains(t, buf.String(), "visible 2")

	buf.Reset()
	Warnf("careful")
	assert.Contains(t, buf.String(), "[WARN]")

	buf.Reset()
	Errorf("failed to cancel job %s", "1234")
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "failed to cancel job 1234")
}
