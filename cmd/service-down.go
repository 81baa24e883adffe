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
	"github.com/rancher-sandbox/testrig/pkg/docker"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
)

func NewServiceDownCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "service-down SERVICE",
		Short: "Stop and remove a service fixture container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			volumes, _ := cmd.Flags().GetBool("volumes")

			if cfg.Container == nil {
				runtime, err := docker.NewRuntime(cfg.Logger)
				if err != nil {
					return testrigError.NewFromError(err, testrigError.StopContainer)
				}
				cfg.Container = runtime
			}

			return action.NewServiceDownAction(cfg, args[0], volumes).Run()
		},
	}
	root.AddCommand(c)
	c.Flags().BoolP("volumes", "v", false, "Remove anonymous volumes attached to the container")
	return c
}

// register the subcommand into rootCmd
var _ = NewServiceDownCmd(rootCmd)
