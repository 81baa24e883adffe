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

func NewDeployToolCmd(root *cobra.Command, addCheckRoot bool) *cobra.Command {
	c := &cobra.Command{
		Use:   "deploy-tool",
		Short: "Deploy a tool binary unless the wanted version is already installed",
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
			spec, err := config.ReadDeployToolSpec(cfg, cmd.Flags())
			if err != nil {
				cfg.Logger.Errorf("Error reading spec: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingToolSpec)
			}

			return action.NewDeployToolAction(cfg, spec).Run()
		},
	}
	root.AddCommand(c)
	addStrictFlag(c)
	c.Flags().String("name", "", "Tool name")
	c.Flags().String("version", "", "Version the tool must be at")
	c.Flags().String("source", "", "Tool source URI (http(s):, docker:, channel:, dir: or file:)")
	c.Flags().String("binary", "", "Binary name when it differs from the tool name")
	c.Flags().String("install-dir", "", "Directory the binary is installed into")
	c.Flags().String("checksum", "", "Expected sha256 of a plain file download")
	c.Flags().String("sysroot", "", "Chroot into this root for version detection and install")
	c.Flags().BoolP("force", "f", false, "Deploy even if the wanted version is already installed")
	return c
}

// register the subcommand into rootCmd
var _ = NewDeployToolCmd(rootCmd, true)
