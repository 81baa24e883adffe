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
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/zypper"
)

func NewAddRepoCmd(root *cobra.Command, addCheckRoot bool) *cobra.Command {
	c := &cobra.Command{
		Use:   "add-repo URI ALIAS",
		Short: "Add or update a single zypper repository",
		Args:  cobra.ExactArgs(2),
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
			name, _ := cmd.Flags().GetString("name")
			priority, _ := cmd.Flags().GetInt("priority")
			refresh, _ := cmd.Flags().GetBool("refresh")
			disable, _ := cmd.Flags().GetBool("disable")
			gpgcheck, _ := cmd.Flags().GetBool("gpgcheck")
			sysroot, _ := cmd.Flags().GetString("root")

			repo := v1.Repository{
				URI:      args[0],
				Alias:    args[1],
				Name:     name,
				Priority: priority,
				Refresh:  refresh,
				Disabled: disable,
				GPGCheck: gpgcheck,
			}
			if err := repo.Sanitize(); err != nil {
				return testrigError.NewFromError(err, testrigError.AddRepo)
			}

			z := zypper.NewZypper(cfg.Logger, cfg.Runner, cfg.Fs, zypper.WithRoot(sysroot))
			changed, err := z.Ensure(repo)
			if err != nil {
				return testrigError.NewFromError(err, testrigError.AddRepo)
			}
			if changed {
				cfg.Logger.Infof("Repository '%s': changed", repo.Alias)
			} else {
				cfg.Logger.Infof("Repository '%s': unchanged", repo.Alias)
			}
			return nil
		},
	}
	root.AddCommand(c)
	addRepoFlags(c)
	addRootFlag(c)
	return c
}

// register the subcommand into rootCmd
var _ = NewAddRepoCmd(rootCmd, true)
