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
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

// Hook is a RunStage wrapper that only adds logic to ignore errors in case
// strict is not set, provisioning hooks run on a best effort basis
func Hook(config *v1.Config, hook string, strict bool, cloudInitPaths ...string) error {
	config.Logger.Infof("Running %s hook", hook)
	err := utils.RunStage(config, hook, strict, cloudInitPaths...)
	if !strict {
		err = nil
	}
	return err
}

// ChrootHook executes Hook inside a chroot environment
func ChrootHook(config *v1.Config, hook string, strict bool, chrootDir string, bindMounts map[string]string, cloudInitPaths ...string) (err error) {
	callback := func() error {
		return Hook(config, hook, strict, cloudInitPaths...)
	}
	return utils.ChrootedCallback(config, chrootDir, bindMounts, callback)
}

// withState loads the provision state, hands it to the callback and persists
// it afterwards when the callback succeeds
func withState(cfg *v1.RunConfig, update func(state *v1.ProvisionState) error) error {
	state, err := utils.LoadProvisionState(cfg.Fs, cfg.StatePath)
	if err != nil {
		cfg.Logger.Errorf("Failed loading provision state: %s", err.Error())
		return err
	}

	err = update(state)
	if err != nil {
		return err
	}

	return utils.WriteProvisionState(cfg.Fs, cfg.StatePath, state)
}
