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
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scriptViper = viper.New()

var scriptCmd = &cobra.Command{
	Use:   "script",
	Short: "Print the batch script of a training job",
	Long: `Render the batch script of a training job without submitting it.

The job is built the same way as for the submit command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := getJobSpec(scriptViper)
		if err != nil {
			return err
		}
		if err = spec.Validate(); err != nil {
			return errors.Wrap(err, "invalid job definition")
		}
		script, err := spec.BatchScript()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), script)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(scriptCmd)
	setJobFlags(scriptCmd, scriptViper)
}
