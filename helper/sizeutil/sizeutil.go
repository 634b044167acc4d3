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

package sizeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

var slurmMemoryRegexp = regexp.MustCompile(`^(\d+)([KMGTkmgt])$`)

// ToSlurmMemory converts a memory size into the format expected by the sbatch --mem option.
//
// A size already using a Slurm unit suffix as "32G" is kept as is (the unit is upper-cased).
// A bare integer as "4096" is a number of megabytes, Slurm default unit.
// A human readable size as "32 GB" or "16GiB" is converted into MiB and rendered in G
// when it is a whole number of GiB.
func ToSlurmMemory(size string) (string, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return "", errors.New("empty memory size")
	}
	if m := slurmMemoryRegexp.FindStringSubmatch(s); m != nil {
		return m[1] + strings.ToUpper(m[2]), nil
	}
	if mb, err := strconv.ParseUint(s, 10, 64); err == nil {
		return fmt.Sprintf("%dM", mb), nil
	}
	bsize, err := humanize.ParseBytes(s)
	if err != nil {
		return "", errors.Errorf("Can't convert size to bytes value: %v", err)
	}
	mib := bsize / humanize.MiByte
	if mib == 0 {
		return "", errors.Errorf("memory size %q is lower than 1MiB", size)
	}
	if mib%1024 == 0 {
		return fmt.Sprintf("%dG", mib/1024), nil
	}
	return fmt.Sprintf("%dM", mib), nil
}
