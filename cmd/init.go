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
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rancher-sandbox/testrig/cmd/config"
	"github.com/rancher-sandbox/testrig/pkg/action"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/profiles"
)

func InitCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "init PROFILES",
		Short: "Initialize the host with provisioning profiles",
		Long: "Install provisioning profiles into the testrig config.d directory\n\n" +
			"PROFILES - provided as an argument list of profiles to install.\n" +
			"  Available profiles:\n\t" + strings.Join(profiles.All, "\n\t"),
		ValidArgs: profiles.All,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				// comma separated values are accepted too
				return cobra.OnlyValidArgs(cmd, strings.Split(args[0], ","))
			}
			return cobra.OnlyValidArgs(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			spec, err := config.ReadInitSpec(cfg, cmd.Flags())
			if err != nil {
				cfg.Logger.Errorf("Error reading spec: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			if len(args) == 1 {
				spec.Profiles = strings.Split(args[0], ",")
			} else if len(args) > 1 {
				spec.Profiles = args
			}

			cfg.Logger.Infof("Initializing test host...")
			err = action.RunInit(cfg, spec)
			if err != nil {
				cfg.Logger.Errorf("init command failed: %v", err)
			}
			return err
		},
	}
	root.AddCommand(c)
	c.Flags().BoolP("force", "f", false, "Force run")
	c.Flags().Bool("run", false, "Run the setup stage after installing the profiles")
	addStrictFlag(c)
	return c
}

var _ = InitCmd(rootCmd)
