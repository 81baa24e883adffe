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
	"github.com/rancher-sandbox/testrig/pkg/constants"
	"github.com/rancher-sandbox/testrig/pkg/docker"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/fixture"
)

func NewServiceUpCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "service-up [SERVICE]",
		Short: "Start a service fixture container and wait for it to turn healthy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			file, _ := cmd.Flags().GetString("file")
			service, _ := cmd.Flags().GetString("service")
			noWait, _ := cmd.Flags().GetBool("no-wait")
			if file == "" {
				file = constants.FixtureFile
			}
			if len(args) > 0 {
				service = args[0]
			}

			spec, err := fixture.Load(cfg.Fs, file, service)
			if err != nil {
				cfg.Logger.Errorf("Error reading fixture: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingFixture)
			}

			if cfg.Container == nil {
				runtime, err := docker.NewRuntime(cfg.Logger)
				if err != nil {
					return testrigError.NewFromError(err, testrigError.CreateContainer)
				}
				cfg.Container = runtime
			}

			return action.NewServiceUpAction(cfg, spec, !noWait).Run()
		},
	}
	root.AddCommand(c)
	addFixtureFlags(c)
	addStrictFlag(c)
	c.Flags().Bool("no-wait", false, "Do not wait for the service healthcheck")
	return c
}

// register the subcommand into rootCmd
var _ = NewServiceUpCmd(rootCmd)
