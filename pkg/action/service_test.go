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
	"time"

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

var _ = Describe("Service actions", Label("action", "service"), func() {
	var cfg *v1.RunConfig
	var engine *mocks.FakeContainerRuntime
	var cloudInit *mocks.FakeCloudInitRunner
	var fs vfs.FS
	var cleanup func()
	var spec *v1.ServiceSpec

	BeforeEach(func() {
		engine = mocks.NewFakeContainerRuntime()
		cloudInit = &mocks.FakeCloudInitRunner{}
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{})
		cfg = config.NewRunConfig(
			config.WithFs(fs),
			config.WithRunner(mocks.NewFakeRunner()),
			config.WithLogger(v1.NewNullLogger()),
			config.WithMounter(mocks.NewFakeMounter()),
			config.WithCloudInitRunner(cloudInit),
			config.WithContainerRuntime(engine),
		)
		spec = &v1.ServiceSpec{
			Name:  "keycloak",
			Image: "quay.io/keycloak/keycloak:latest",
			Ports: []string{"8080:8080"},
			Healthcheck: &v1.Healthcheck{
				Test:     []string{"CMD-SHELL", "curl -f http://localhost:8080"},
				Interval: time.Millisecond,
				Timeout:  time.Millisecond,
				Retries:  3,
			},
		}
		spec.Sanitize()
	})
	AfterEach(func() {
		cleanup()
	})
	Describe("ServiceUpAction", func() {
		It("pulls the image, starts the container and waits for health", func() {
			engine.HealthSequence = []string{constants.HealthStarting, constants.HealthHealthy}
			up := action.NewServiceUpAction(cfg, spec, true)
			Expect(up.Run()).To(Succeed())

			Expect(engine.WasPulled(spec.Image)).To(BeTrue())
			Expect(engine.HasContainer(spec.ContainerName)).To(BeTrue())
			Expect(cloudInit.ExecStages).To(ContainElement(constants.AfterServiceHook))

			state, err := utils.LoadProvisionState(fs, cfg.StatePath)
			Expect(err).To(BeNil())
			image, ok := state.GetFact("service.keycloak.image")
			Expect(ok).To(BeTrue())
			Expect(image).To(Equal(spec.Image))
		})
		It("does not pull an image that is already present", func() {
			engine.LocalImages = []string{spec.Image}
			engine.HealthSequence = []string{constants.HealthHealthy}
			up := action.NewServiceUpAction(cfg, spec, true)
			Expect(up.Run()).To(Succeed())
			Expect(engine.WasPulled(spec.Image)).To(BeFalse())
		})
		It("removes the container when it turns unhealthy", func() {
			engine.HealthSequence = []string{constants.HealthStarting, constants.HealthUnhealthy}
			up := action.NewServiceUpAction(cfg, spec, true)
			Expect(up.Run()).NotTo(Succeed())
			Expect(engine.HasContainer(spec.ContainerName)).To(BeFalse())
		})
		It("does not wait for health when wait is disabled", func() {
			engine.HealthSequence = []string{constants.HealthUnhealthy}
			up := action.NewServiceUpAction(cfg, spec, false)
			Expect(up.Run()).To(Succeed())
			Expect(engine.HasContainer(spec.ContainerName)).To(BeTrue())
		})
		It("fails when the image cannot be pulled", func() {
			engine.ErrorOnPull = true
			up := action.NewServiceUpAction(cfg, spec, false)
			Expect(up.Run()).NotTo(Succeed())
		})
		It("fails when the container cannot start", func() {
			engine.ErrorOnStart = true
			up := action.NewServiceUpAction(cfg, spec, false)
			Expect(up.Run()).NotTo(Succeed())
			Expect(engine.HasContainer(spec.ContainerName)).To(BeFalse())
		})
	})
	Describe("ServiceDownAction", func() {
		It("stops and removes a running service and drops its facts", func() {
			engine.HealthSequence = []string{constants.HealthHealthy}
			Expect(action.NewServiceUpAction(cfg, spec, true).Run()).To(Succeed())

			down := action.NewServiceDownAction(cfg, "keycloak", false)
			Expect(down.Run()).To(Succeed())
			Expect(engine.HasContainer(spec.ContainerName)).To(BeFalse())

			state, err := utils.LoadProvisionState(fs, cfg.StatePath)
			Expect(err).To(BeNil())
			_, ok := state.GetFact("service.keycloak.image")
			Expect(ok).To(BeFalse())
		})
		It("is a no-op when the service does not exist", func() {
			down := action.NewServiceDownAction(cfg, "keycloak", false)
			Expect(down.Run()).To(Succeed())
		})
	})
	Describe("ServiceStatus", func() {
		It("returns the runtime view of the service", func() {
			engine.HealthSequence = []string{constants.HealthHealthy}
			Expect(action.NewServiceUpAction(cfg, spec, true).Run()).To(Succeed())

			status, err := action.ServiceStatus(cfg, "keycloak")
			Expect(err).To(BeNil())
			Expect(status.Running).To(BeTrue())
			Expect(status.Image).To(Equal(spec.Image))
		})
		It("errors for an unknown service", func() {
			_, err := action.ServiceStatus(cfg, "unknown")
			Expect(err).NotTo(BeNil())
		})
	})
})
