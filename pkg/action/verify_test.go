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

package action_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/rancher-sandbox/testrig/pkg/action"
	"github.com/rancher-sandbox/testrig/pkg/config"
	"github.com/rancher-sandbox/testrig/pkg/mocks"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// exitError mimics a command failure carrying an exit status
type exitError struct {
	status int
}

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.status) }
func (e exitError) ExitCode() int { return e.status }

var _ = Describe("VerifyAction", Label("action", "verify"), func() {
	var cfg *v1.RunConfig
	var runner *mocks.FakeRunner
	var fs vfs.FS
	var cleanup func()
	var spec *v1.VerifySpec

	BeforeEach(func() {
		runner = mocks.NewFakeRunner()
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{
			"/etc/zypp/repos.d/google-chrome.repo": "[google-chrome]\nenabled=1\n",
		})
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			return []byte("Terraform v0.12.24"), nil
		}
		cfg = config.NewRunConfig(
			config.WithFs(fs),
			config.WithRunner(runner),
			config.WithLogger(v1.NewNullLogger()),
			config.WithMounter(mocks.NewFakeMounter()),
		)
		spec = config.NewVerifySpec()
	})
	AfterEach(func() {
		cleanup()
	})
	It("passes when all checks pass", func() {
		spec.Checks = []v1.Check{
			{Name: "version", Command: "terraform version", Contains: []string{"v0.12.24"}},
			{Name: "repo file", File: "/etc/zypp/repos.d/google-chrome.repo", Contains: []string{"enabled=1"}},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).To(Succeed())
		Expect(runner.CmdsMatch([][]string{{"sh", "-c", "terraform version"}})).To(BeNil())
	})
	It("fails when the command output misses the expected content", func() {
		spec.Checks = []v1.Check{
			{Name: "version", Command: "terraform version", Contains: []string{"v0.13.0"}},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("fails when the output contains forbidden content", func() {
		spec.Checks = []v1.Check{
			{Name: "version", Command: "terraform version", NotContains: []string{"v0.12.24"}},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("fails when the command errors", func() {
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			return []byte{}, errors.New("command failure")
		}
		spec.Checks = []v1.Check{{Name: "broken", Command: "false"}}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("accepts a command expected to fail", func() {
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			return []byte("unit inactive"), exitError{status: 3}
		}
		spec.Checks = []v1.Check{
			{Name: "unit is down", Command: "systemctl is-active acmed.service", ExitStatus: 3, Contains: []string{"inactive"}},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).To(Succeed())
	})
	It("fails when the exit status does not match", func() {
		spec.Checks = []v1.Check{
			{Name: "should fail", Command: "terraform version", ExitStatus: 1},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("checks file absence", func() {
		no := false
		spec.Checks = []v1.Check{
			{Name: "gone", File: "/etc/zypp/repos.d/removed.repo", Exists: &no},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).To(Succeed())
	})
	It("fails when a file that should be absent exists", func() {
		no := false
		spec.Checks = []v1.Check{
			{Name: "still there", File: "/etc/zypp/repos.d/google-chrome.repo", Exists: &no},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("tolerates allowed failures", func() {
		spec.Checks = []v1.Check{
			{Name: "optional", File: "/nonexistent", AllowFail: true},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).To(Succeed())
	})
	It("treats allowed failures as failures in strict mode", func() {
		cfg.Strict = true
		spec.Checks = []v1.Check{
			{Name: "optional", File: "/nonexistent", AllowFail: true},
		}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
	It("rejects a check with no assertion", func() {
		spec.Checks = []v1.Check{{Name: "empty"}}
		Expect(action.NewVerifyAction(cfg, spec).Run()).NotTo(Succeed())
	})
})
