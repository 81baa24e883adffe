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
	"github.com/rancher-sandbox/testrig/pkg/action"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

func NewVerifyCmd(root *cobra.Command) *cobra.Command {
	c := &cobra.Command{
		Use:   "verify [CHECKS_FILE...]",
		Short: "Run the verification checks against the host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ReadConfigRun(viper.GetString("config-dir"), cmd.Flags(), newMounter())
			if err != nil {
				cfg.Logger.Errorf("Error reading config: %s\n", err)
				return testrigError.NewFromError(err, testrigError.ReadingRunConfig)
			}

			cmd.SilenceUsage = true
			var spec *v1.VerifySpec
			if len(args) > 0 {
				spec = &v1.VerifySpec{}
				for _, file := range args {
					part := &v1.VerifySpec{}
					data, err := cfg.Fs.ReadFile(file)
					if err != nil {
						cfg.Logger.Errorf("Error reading checks file '%s': %s\n", file, err)
						return testrigError.NewFromError(err, testrigError.ReadingChecks)
					}
					if err = yaml.Unmarshal(data, part); err != nil {
						cfg.Logger.Errorf("Error parsing checks file '%s': %s\n", file, err)
						return testrigError.NewFromError(err, testrigError.ReadingChecks)
					}
					spec.Checks = append(spec.Checks, part.Checks...)
				}
				if err = spec.Sanitize(); err != nil {
					return testrigError.NewFromError(err, testrigError.ReadingChecks)
				}
			} else {
				spec, err = config.ReadVerifySpec(cfg, cmd.Flags())
				if err != nil {
					cfg.Logger.Errorf("Error reading spec: %s\n", err)
					return testrigError.NewFromError(err, testrigError.ReadingChecks)
				}
			}

			return action.NewVerifyAction(cfg, spec).Run()
		},
	}
	root.AddCommand(c)
	addStrictFlag(c)
	return c
}

// register the subcommand into rootCmd
var _ = NewVerifyCmd(rootCmd)
