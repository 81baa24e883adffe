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
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

func NewStateCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "state",
		Args:  cobra.ExactArgs(0),
		Short: "Shows the recorded provision facts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			viper.SetDefault("quiet", true) // Prevents any other writes to stdout
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			state, err := utils.LoadProvisionState(cfg.Fs, cfg.StatePath)
			if err != nil {
				cfg.Logger.Errorf("Error reading provision state: %s\n", err)
				return testrigError.NewFromError(err, testrigError.WriteState)
			}
			stateBytes, err := yaml.Marshal(state)
			if err != nil {
				cfg.Logger.Errorf("Error marshalling provision state: %s\n", err)
				return testrigError.NewFromError(err, testrigError.WriteState)
			}

			if _, err := cmd.OutOrStdout().Write(stateBytes); err != nil {
				cfg.Logger.Errorf("Error writing provision state on stdout: %s\n", err)
				return testrigError.NewFromError(err, testrigError.WriteState)
			}
			return nil
		},
	}
	root.AddCommand(c)
	return c
}

// register the subcommand into rootCmd
var _ = NewStateCmd(rootCmd)
