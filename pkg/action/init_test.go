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
	"github.com/rancher-sandbox/testrig/pkg/profiles"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

var _ = Describe("RunInit", Label("action", "init"), func() {
	var cfg *v1.RunConfig
	var runner *mocks.FakeRunner
	var cloudInit *mocks.FakeCloudInitRunner
	var fs vfs.FS
	var cleanup func()
	var spec *v1.InitSpec

	BeforeEach(func() {
		runner = mocks.NewFakeRunner()
		cloudInit = &mocks.FakeCloudInitRunner{}
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{})
		cfg = config.NewRunConfig(
			config.WithFs(fs),
			config.WithRunner(runner),
			config.WithLogger(v1.NewNullLogger()),
			config.WithMounter(mocks.NewFakeMounter()),
			config.WithCloudInitRunner(cloudInit),
		)
		spec = config.NewInitSpec()
		spec.Force = true
	})
	AfterEach(func() {
		cleanup()
	})
	It("installs the default profiles and records them", func() {
		Expect(action.RunInit(cfg, spec)).To(Succeed())

		ok, _ := utils.Exists(fs, constants.ConfigExtraDirs)
		Expect(ok).To(BeTrue())

		state, err := utils.LoadProvisionState(fs, cfg.StatePath)
		Expect(err).To(BeNil())
		installed, found := state.GetFact("profile." + profiles.ProfileDefaults)
		Expect(found).To(BeTrue())
		Expect(installed).To(Equal("installed"))
	})
	It("enables the container runtime units", func() {
		spec.Profiles = []string{profiles.ProfileContainerRuntime}
		Expect(action.RunInit(cfg, spec)).To(Succeed())
		Expect(runner.IncludesCmds([][]string{
			{"systemctl", "enable", "docker.service"},
		})).To(BeNil())
	})
	It("runs the setup stage when requested", func() {
		spec.Run = true
		Expect(action.RunInit(cfg, spec)).To(Succeed())
		Expect(cloudInit.ExecStages).To(ContainElement(constants.SetupStage))
	})
	It("refuses to run outside of a container without force", func() {
		spec.Force = false
		Expect(action.RunInit(cfg, spec)).NotTo(Succeed())
	})
	It("runs inside a container without force", func() {
		Expect(fs.WriteFile("/.dockerenv", []byte{}, 0644)).To(Succeed())
		spec.Force = false
		Expect(action.RunInit(cfg, spec)).To(Succeed())
	})
	It("fails on unknown profiles", func() {
		spec.Profiles = []string{"made-up"}
		Expect(action.RunInit(cfg, spec)).NotTo(Succeed())
	})
})
