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
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ystia/jobsub/config"
	"github.com/ystia/jobsub/log"
)

// RootCmd is the root of jobsub commands tree
var RootCmd = &cobra.Command{
	Use:   "jobsub",
	Short: "Submit GPU training jobs to Slurm",
	Long: `jobsub renders training hyperparameters and a resource request
into a Slurm batch script and submits it with sbatch, either on this host
or on a login node reached over SSH.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetDebug(true)
		}
		initConfig(cfgViper, cfgFile)
	},
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			fmt.Print(err)
		}
	},
}

// cfgViper is the viper configuration shared by all commands
var cfgViper = viper.New()

var cfgFile string

// noColor disables coloring of the output
var noColor bool

// clusterKeys are the settings of the cluster section of the configuration
var clusterKeys = []string{"transport", "url", "port", "user_name", "password", "private_key", "private_key_passphrase", "env_file", "ssh_timeout"}

func init() {
	setConfig(RootCmd, cfgViper)
}

func setConfig(c *cobra.Command, v *viper.Viper) {
	c.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is /etc/jobsub/config.jobsub.[json|yaml|toml])")
	c.PersistentFlags().Bool("debug", false, "Enable debug logs")
	c.PersistentFlags().BoolVar(&noColor, "no_color", false, "Disable coloring output")
	c.PersistentFlags().String("working_directory", config.DefaultWorkingDirectory, "Directory where jobsub keeps its submission history")

	c.PersistentFlags().String("transport", config.DefaultTransport, "How Slurm commands are run: local or ssh")
	c.PersistentFlags().String("url", "", "Host name or address of the Slurm login node (ssh transport)")
	c.PersistentFlags().Int("port", config.DefaultSSHPort, "SSH port of the Slurm login node")
	c.PersistentFlags().String("user_name", "", "User name used to connect to the Slurm login node")
	c.PersistentFlags().String("password", "", "Password used to connect to the Slurm login node")
	c.PersistentFlags().String("private_key", "", "Private key (path or content) used to connect to the Slurm login node")
	c.PersistentFlags().String("private_key_passphrase", "", "Passphrase of the private key")
	c.PersistentFlags().String("env_file", "", "File sourced on the cluster before running sbatch")
	c.PersistentFlags().Duration("ssh_timeout", config.DefaultSSHTimeout, "Timeout to establish the SSH connection")

	v.BindPFlag("working_directory", c.PersistentFlags().Lookup("working_directory"))
	for _, k := range clusterKeys {
		v.BindPFlag("cluster."+k, c.PersistentFlags().Lookup(k))
	}

	//Environment Variables
	v.SetEnvPrefix("jobsub") // will be uppercased automatically - Become "JOBSUB_"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("working_directory")
	for _, k := range clusterKeys {
		v.BindEnv("cluster." + k)
	}

	//Setting Defaults
	v.SetDefault("working_directory", config.DefaultWorkingDirectory)
	v.SetDefault("cluster.transport", config.DefaultTransport)

	//Configuration file directories
	v.SetConfigName("config.jobsub") // name of config file (without extension)
	v.AddConfigPath("/etc/jobsub/")
	v.AddConfigPath("$HOME/.jobsub/")
	v.AddConfigPath(".")
}

// initConfig reads in config file if any
func initConfig(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		v.SetConfigFile(cfgFile)
	}
	if err := v.ReadInConfig(); err != nil {
		_, ok := err.(viper.ConfigFileNotFoundError)
		if cfgFile != "" || !ok {
			log.Printf("Can't use config file: %v", err)
		}
		return
	}
	log.Debugln("Using config file:", v.ConfigFileUsed())
	for _, k := range unknownClusterKeys(getConfig(v).Cluster) {
		log.Warnf("Unknown cluster setting %q in %s is ignored", k, v.ConfigFileUsed())
	}
}

// unknownClusterKeys returns the sorted cluster settings that are not in clusterKeys, typically typos
func unknownClusterKeys(cluster config.DynamicMap) []string {
	var unknown []string
	for _, k := range cluster.Keys() {
		known := false
		for _, ck := range clusterKeys {
			if k == ck {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

func getConfig(v *viper.Viper) config.Configuration {
	configuration := config.Configuration{
		WorkingDirectory: v.GetString("working_directory"),
		Cluster:          config.DynamicMap{},
	}
	// Keys only known from the config file
	for k, val := range v.GetStringMap("cluster") {
		configuration.Cluster.Set(k, val)
	}
	for _, k := range clusterKeys {
		if v.IsSet("cluster." + k) {
			configuration.Cluster.Set(k, v.Get("cluster."+k))
		}
	}
	return configuration
}
