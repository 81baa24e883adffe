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
	"github.com/rancher-sandbox/testrig/pkg/action"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
)

func NewApplyReposCmd(root *cobra.Command, addCheckRoot bool) *cobra.Command {
	c := &cobra.Command{
		Use:   "apply-repos",
		Short: "Reconcile the configured repositories against the host",
		Args:  cobra.ExactArgs(0),
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if addCheckRoot {
				return CheckRoot()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			sysroot, _ := cmd.Flags().GetString("root")
			refresh, _ := cmd.Flags().GetBool("refresh")

			return action.NewApplyReposAction(cfg, sysroot, refresh).Run()
		},
	}
	root.AddCommand(c)
	addRootFlag(c)
	addStrictFlag(c)
	c.Flags().Bool("refresh", false, "Refresh metadata of the repositories that changed")
	return c
}

// register the subcommand into rootCmd
var _ = NewApplyReposCmd(rootCmd, true)
