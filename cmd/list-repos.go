/*
Copyright © 2022 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rancher-sandbox/testrig/cmd/config"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/zypper"
)

func NewListReposCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "list-repos",
		Short: "List the configured zypper repositories",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			viper.SetDefault("quiet", true) // Prevents any other writes to stdout
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			sysroot, _ := cmd.Flags().GetString("root")

			z := zypper.NewZypper(cfg.Logger, cfg.Runner, cfg.Fs, zypper.WithRoot(sysroot))
			repos, err := z.List()
			if err != nil {
				return testrigError.NewFromError(err, testrigError.ListRepos)
			}

			data, err := yaml.Marshal(repos)
			if err != nil {
				return testrigError.NewFromError(err, testrigError.ListRepos)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	root.AddCommand(c)
	addRootFlag(c)
	return c
}

// register the subcommand into rootCmd
var _ = NewListReposCmd(rootCmd)
