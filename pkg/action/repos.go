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
	"strings"

	"github.com/hashicorp/go-multierror"

	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
	"github.com/rancher-sandbox/testrig/pkg/zypper"
)

// ApplyReposAction reconciles the declarative repository set against the
// host zypper configuration
type ApplyReposAction struct {
	cfg     *v1.RunConfig
	root    string
	refresh bool
}

func NewApplyReposAction(cfg *v1.RunConfig, root string, refresh bool) *ApplyReposAction {
	return &ApplyReposAction{cfg: cfg, root: root, refresh: refresh}
}

func (a ApplyReposAction) Run() error {
	cfg := a.cfg
	if len(cfg.Repos) == 0 {
		cfg.Logger.Info("No repositories configured, nothing to apply")
		return nil
	}

	// Reconciling against a foreign distro is likely a misconfigured host,
	// zypper calls would fail with confusing errors downstream
	if distro := utils.GetHostDistro(cfg.Fs); distro != "" && !strings.Contains(distro, "suse") && !strings.Contains(distro, "sles") {
		cfg.Logger.Warnf("Host distribution '%s' does not look zypper based", distro)
	}

	z := zypper.NewZypper(cfg.Logger, cfg.Runner, cfg.Fs, zypper.WithRoot(a.root))

	var applyErrors error
	changedAliases := []string{}

	err := withState(cfg, func(state *v1.ProvisionState) error {
		for _, repo := range cfg.Repos {
			changed, err := z.Ensure(repo)
			if err != nil {
				cfg.Logger.Errorf("Failed applying repository '%s': %s", repo.Alias, err.Error())
				applyErrors = multierror.Append(applyErrors, err)
				continue
			}
			if changed {
				cfg.Logger.Infof("Repository '%s': changed", repo.Alias)
				changedAliases = append(changedAliases, repo.Alias)
			} else {
				cfg.Logger.Infof("Repository '%s': unchanged", repo.Alias)
			}
			state.SetFact(fmt.Sprintf("repo.%s.changed", repo.Alias), fmt.Sprintf("%t", changed))
		}
		return nil
	})
	if err != nil {
		return testrigError.NewFromError(err, testrigError.WriteState)
	}

	if applyErrors != nil {
		return testrigError.NewFromError(applyErrors, testrigError.AddRepo)
	}

	if a.refresh && len(changedAliases) > 0 {
		err = z.Refresh(false, true, changedAliases...)
		if err != nil {
			return testrigError.NewFromError(err, testrigError.RefreshRepos)
		}
	}

	return nil
}
