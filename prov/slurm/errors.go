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

package slurm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// SubmissionError is returned when the scheduler rejects a job.
//
// Output holds the scheduler answer verbatim.
type SubmissionError struct {
	Cmd    string
	Output string
	Err    error
}

func (e *SubmissionError) Error() string {
	out := strings.TrimRight(e.Output, "\n")
	switch {
	case out != "" && e.Err != nil:
		return fmt.Sprintf("job submission rejected: %s: %v", out, e.Err)
	case out != "":
		return fmt.Sprintf("job submission rejected: %s", out)
	case e.Err != nil:
		return fmt.Sprintf("job submission rejected: %v", e.Err)
	}
	return "job submission rejected"
}

// Unwrap returns the underlying error
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsSubmissionError checks if an error is (or wraps) a SubmissionError
func IsSubmissionError(err error) bool {
	var subErr *SubmissionError
	return errors.As(err, &subErr)
}

type noJobFound struct {
	msg string
}

func (jid *noJobFound) Error() string {
	return jid.msg
}

// IsNoJobFoundError checks if an error is due to a job unknown by the scheduler
func IsNoJobFoundError(err error) bool {
	var njf *noJobFound
	return errors.As(err, &njf)
}
