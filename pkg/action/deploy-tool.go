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

	"github.com/rancher-sandbox/testrig/pkg/constants"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	"github.com/rancher-sandbox/testrig/pkg/provisioner"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// DeployToolAction wraps the provisioner flow with the deploy hooks and
// records the outcome as provision facts
type DeployToolAction struct {
	cfg  *v1.RunConfig
	spec *v1.DeployToolSpec
}

func NewDeployToolAction(cfg *v1.RunConfig, spec *v1.DeployToolSpec) *DeployToolAction {
	return &DeployToolAction{cfg: cfg, spec: spec}
}

func (d DeployToolAction) Run() error {
	cfg := d.cfg
	spec := d.spec

	err := Hook(&cfg.Config, constants.BeforeDeployHook, cfg.Strict, cfg.CloudInitPaths...)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.CloudInitRunStage)
	}

	prov := provisioner.NewProvisioner(&cfg.Config, spec)
	result, err := prov.Deploy()
	if err != nil {
		cfg.Logger.Errorf("Failed deploying tool '%s': %s", spec.Name, err.Error())
		return testrigError.NewFromError(err, testrigError.StageBinary)
	}

	if result.Changed {
		cfg.Logger.Infof("Tool '%s' deployed at %s (version %s)", spec.Name, result.Path, result.Version)
	}

	err = withState(cfg, func(state *v1.ProvisionState) error {
		state.SetFact(fmt.Sprintf("tool.%s.version", spec.Name), result.Version)
		state.SetFact(fmt.Sprintf("tool.%s.path", spec.Name), result.Path)
		state.SetFact(fmt.Sprintf("tool.%s.source", spec.Name), result.Source)
		return nil
	})
	if err != nil {
		return testrigError.NewFromError(err, testrigError.WriteState)
	}

	// Tools landing in an alternate root get the after hook chrooted there,
	// so hook stages observe the deployed tree
	if spec.Sysroot != "" {
		err = ChrootHook(&cfg.Config, constants.AfterDeployHook, cfg.Strict, spec.Sysroot, nil, cfg.CloudInitPaths...)
	} else {
		err = Hook(&cfg.Config, constants.AfterDeployHook, cfg.Strict, cfg.CloudInitPaths...)
	}
	if err != nil {
		return testrigError.NewFromError(err, testrigError.CloudInitRunStage)
	}

	return nil
}
