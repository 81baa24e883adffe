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

	"github.com/rancher-sandbox/testrig/cmd/config"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/zypper"
)

func NewUpdateRepoCmd(root *cobra.Command, addCheckRoot bool) *cobra.Command {
	c := &cobra.Command{
		Use:   "update-repo ALIAS",
		Short: "Update properties of an existing zypper repository",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if addCheckRoot {
				return CheckRoot()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
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

			for _, repo := range repos {
				if repo.Alias != args[0] {
					continue
				}
				if cmd.Flags().Changed("name") {
					repo.Name, _ = cmd.Flags().GetString("name")
				}
				if cmd.Flags().Changed("priority") {
					repo.Priority, _ = cmd.Flags().GetInt("priority")
				}
				if cmd.Flags().Changed("refresh") {
					repo.Refresh, _ = cmd.Flags().GetBool("refresh")
				}
				if cmd.Flags().Changed("disable") {
					repo.Disabled, _ = cmd.Flags().GetBool("disable")
				}
				if cmd.Flags().Changed("gpgcheck") {
					repo.GPGCheck, _ = cmd.Flags().GetBool("gpgcheck")
				}
				err = z.Modify(repo)
				if err != nil {
					return testrigError.NewFromError(err, testrigError.ModifyRepo)
				}
				cfg.Logger.Infof("Repository '%s' updated", repo.Alias)
				return nil
			}
			return testrigError.New("no repository found with alias "+args[0], testrigError.ModifyRepo)
		},
	}
	root.AddCommand(c)
	addRepoFlags(c)
	addRootFlag(c)
	return c
}

// register the subcommand into rootCmd
var _ = NewUpdateRepoCmd(rootCmd, true)
