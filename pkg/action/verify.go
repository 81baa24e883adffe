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
)

// VerifyAction runs the declared post-provisioning checks and reports a
// pass/fail/skip summary
type VerifyAction struct {
	cfg  *v1.RunConfig
	spec *v1.VerifySpec
}

func NewVerifyAction(cfg *v1.RunConfig, spec *v1.VerifySpec) *VerifyAction {
	return &VerifyAction{cfg: cfg, spec: spec}
}

func (v VerifyAction) Run() error {
	var failures error
	passed, failed, skipped := 0, 0, 0

	for _, check := range v.spec.Checks {
		err := v.runCheck(check)
		if err == nil {
			v.cfg.Logger.Infof("Check '%s': ok", check.Name)
			passed++
			continue
		}
		if check.AllowFail && !v.cfg.Strict {
			v.cfg.Logger.Warnf("Check '%s' failed (allowed): %v", check.Name, err)
			skipped++
			continue
		}
		v.cfg.Logger.Errorf("Check '%s' failed: %v", check.Name, err)
		failures = multierror.Append(failures, fmt.Errorf("%s: %w", check.Name, err))
		failed++
	}

	v.cfg.Logger.Infof("Verify summary: %d passed, %d failed, %d allowed failures", passed, failed, skipped)
	if failures != nil {
		return testrigError.NewFromError(failures, testrigError.VerifyFailed)
	}
	return nil
}

func (v VerifyAction) runCheck(check v1.Check) error {
	if check.File != "" {
		return v.runFileCheck(check)
	}
	if check.Command != "" {
		return v.runCommandCheck(check)
	}
	return fmt.Errorf("check defines neither a command nor a file")
}

func (v VerifyAction) runCommandCheck(check v1.Check) error {
	out, err := v.cfg.Runner.Run("sh", "-c", check.Command)
	status := commandExitStatus(err)
	if status != check.ExitStatus {
		return fmt.Errorf("command exited with status %d, expected %d", status, check.ExitStatus)
	}
	return matchOutput(string(out), check)
}

// commandExitStatus digs the exit status out of a runner error, -1 when the
// command could not run at all
func commandExitStatus(err error) int {
	if err == nil {
		return 0
	}
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}

func (v VerifyAction) runFileCheck(check v1.Check) error {
	ok, err := utils.Exists(v.cfg.Fs, check.File)
	if err != nil {
		return err
	}
	if check.Exists != nil && !*check.Exists {
		if ok {
			return fmt.Errorf("file '%s' exists but should not", check.File)
		}
		return nil
	}
	if !ok {
		return fmt.Errorf("file '%s' does not exist", check.File)
	}
	if len(check.Contains) == 0 && len(check.NotContains) == 0 {
		return nil
	}
	data, err := v.cfg.Fs.ReadFile(check.File)
	if err != nil {
		return err
	}
	return matchOutput(string(data), check)
}

func matchOutput(out string, check v1.Check) error {
	for _, want := range check.Contains {
		if !strings.Contains(out, want) {
			return fmt.Errorf("output does not contain '%s'", want)
		}
	}
	for _, unwanted := range check.NotContains {
		if strings.Contains(out, unwanted) {
			return fmt.Errorf("output contains '%s'", unwanted)
		}
	}
	return nil
}
