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

package action

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/profiles"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

// RunInit installs the selected host profiles and optionally executes the
// setup stage right away
func RunInit(cfg *v1.RunConfig, spec *v1.InitSpec) error {
	if exists, _ := utils.Exists(cfg.Fs, "/.dockerenv"); !exists && !spec.Force {
		return testrigError.New("running outside of a container, pass --force to run anyway", testrigError.StatFile)
	}

	selected, err := profiles.Get(spec.Profiles)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.InstallProfile)
	}

	var failures error
	for _, profile := range selected {
		cfg.Logger.Infof("Installing profile '%s'", profile.Name)
		err = profile.Install(cfg.Logger, cfg.Fs, cfg.Runner)
		if err != nil {
			failures = multierror.Append(failures, fmt.Errorf("profile '%s': %w", profile.Name, err))
		}
	}
	if failures != nil {
		return testrigError.NewFromError(failures, testrigError.InstallProfile)
	}

	err = withState(cfg, func(state *v1.ProvisionState) error {
		for _, profile := range selected {
			state.SetFact(fmt.Sprintf("profile.%s", profile.Name), "installed")
		}
		return nil
	})
	if err != nil {
		return testrigError.NewFromError(err, testrigError.WriteState)
	}

	if spec.Run {
		return Hook(&cfg.Config, constants.SetupStage, cfg.Strict, cfg.CloudInitPaths...)
	}
	return nil
}
