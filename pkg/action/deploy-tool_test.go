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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/rancher-sandbox/testrig/pkg/action"
	"github.com/rancher-sandbox/testrig/pkg/config"
	"github.com/rancher-sandbox/testrig/pkg/constants"
	"github.com/rancher-sandbox/testrig/pkg/mocks"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

var _ = Describe("DeployToolAction", Label("action", "deploy-tool"), func() {
	var cfg *v1.RunConfig
	var runner *mocks.FakeRunner
	var cloudInit *mocks.FakeCloudInitRunner
	var syscall *mocks.FakeSyscall
	var fs vfs.FS
	var cleanup func()
	var spec *v1.DeployToolSpec

	BeforeEach(func() {
		runner = mocks.NewFakeRunner()
		cloudInit = &mocks.FakeCloudInitRunner{}
		syscall = &mocks.FakeSyscall{}
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{})
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			if command == "terraform" {
				return []byte("Terraform v0.12.24"), nil
			}
			return []byte{}, nil
		}
		cfg = config.NewRunConfig(
			config.WithFs(fs),
			config.WithRunner(runner),
			config.WithLogger(v1.NewNullLogger()),
			config.WithMounter(mocks.NewFakeMounter()),
			config.WithCloudInitRunner(cloudInit),
			config.WithSyscall(syscall),
		)
		spec = config.NewDeployToolSpec()
		spec.Name = "terraform"
		spec.Binary = "terraform"
		spec.Version = "0.12.24"
		spec.InstallDir = constants.DefaultInstallDir
		spec.Check = v1.VersionCheck{
			Command: "terraform version",
			Regex:   `Terraform v(\d+\.\d+\.\d+)`,
		}
	})
	AfterEach(func() {
		cleanup()
	})
	It("records facts and runs the hooks on an up to date tool", func() {
		deploy := action.NewDeployToolAction(cfg, spec)
		Expect(deploy.Run()).To(Succeed())

		Expect(cloudInit.ExecStages).To(ContainElement(constants.BeforeDeployHook))
		Expect(cloudInit.ExecStages).To(ContainElement(constants.AfterDeployHook))

		state, err := utils.LoadProvisionState(fs, cfg.StatePath)
		Expect(err).To(BeNil())
		version, ok := state.GetFact("tool.terraform.version")
		Expect(ok).To(BeTrue())
		Expect(version).To(Equal("0.12.24"))
	})
	It("chroots into the sysroot for the after hook", func() {
		spec.Sysroot = "/sysroot"
		Expect(utils.MkdirAll(fs, "/sysroot", constants.DirPerm)).To(Succeed())

		deploy := action.NewDeployToolAction(cfg, spec)
		Expect(deploy.Run()).To(Succeed())

		Expect(cloudInit.ExecStages).To(ContainElement(constants.AfterDeployHook))
		Expect(syscall.WasChrootCalledWith("/sysroot")).To(BeTrue())
	})
	It("fails when a hook fails in strict mode", func() {
		cfg.Strict = true
		cloudInit.Error = true
		deploy := action.NewDeployToolAction(cfg, spec)
		Expect(deploy.Run()).NotTo(Succeed())
	})
	It("fails when the tool cannot be deployed", func() {
		spec.Version = "0.13.0"
		spec.Source = v1.NewFileSrc("/nonexistent/terraform")
		deploy := action.NewDeployToolAction(cfg, spec)
		Expect(deploy.Run()).NotTo(Succeed())
	})
})
