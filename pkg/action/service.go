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
	"context"
	"fmt"
	"time"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	testrigError "github.com/rancher-sandbox/testrig/pkg/error"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

// ServiceUpAction brings a fixture service container up and optionally
// waits until the engine reports it healthy
type ServiceUpAction struct {
	cfg  *v1.RunConfig
	spec *v1.ServiceSpec
	wait bool
}

func NewServiceUpAction(cfg *v1.RunConfig, spec *v1.ServiceSpec, wait bool) *ServiceUpAction {
	return &ServiceUpAction{cfg: cfg, spec: spec, wait: wait}
}

func (s ServiceUpAction) Run() (err error) {
	cfg := s.cfg
	spec := s.spec
	ctx := context.Background()
	cleanup := utils.NewCleanStack()
	defer func() { err = cleanup.Cleanup(err) }()

	exists, err := cfg.Container.ImageExists(ctx, spec.Image)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.PullImage)
	}
	if !exists {
		err = cfg.Container.PullImage(ctx, spec.Image)
		if err != nil {
			return testrigError.NewFromError(err, testrigError.PullImage)
		}
	}

	id, err := cfg.Container.CreateService(ctx, spec)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.CreateContainer)
	}
	// a failed startup leaves no half built container behind
	cleanup.PushErrorOnly(func() error { return cfg.Container.RemoveService(ctx, id, true) })

	err = cfg.Container.StartService(ctx, id)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.StartContainer)
	}
	cfg.Logger.Infof("Service '%s' started (%s)", spec.Name, id)

	if s.wait && spec.Healthcheck != nil {
		err = s.waitHealthy(ctx)
		if err != nil {
			return testrigError.NewFromError(err, testrigError.ServiceUnhealthy)
		}
	}

	err = withState(cfg, func(state *v1.ProvisionState) error {
		state.SetFact(fmt.Sprintf("service.%s.id", spec.Name), id)
		state.SetFact(fmt.Sprintf("service.%s.image", spec.Name), spec.Image)
		return nil
	})
	if err != nil {
		return testrigError.NewFromError(err, testrigError.WriteState)
	}

	return Hook(&cfg.Config, constants.AfterServiceHook, cfg.Strict, cfg.CloudInitPaths...)
}

// waitHealthy polls the engine's own health verdict until it settles, the
// deadline is derived from the declared healthcheck parameters so no retry
// logic is added on top of the engine's
func (s ServiceUpAction) waitHealthy(ctx context.Context) error {
	spec := s.spec
	deadline := time.Now().Add(spec.HealthDeadline())
	interval := spec.Healthcheck.Interval

	s.cfg.Logger.Infof("Waiting up to %s for service '%s' to turn healthy", spec.HealthDeadline(), spec.Name)
	for {
		status, err := s.cfg.Container.ServiceStatus(ctx, spec.ContainerName)
		if err != nil {
			return err
		}
		switch status.Health {
		case constants.HealthHealthy:
			s.cfg.Logger.Infof("Service '%s' is healthy", spec.Name)
			return nil
		case constants.HealthUnhealthy:
			return fmt.Errorf("service '%s' turned unhealthy", spec.Name)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("service '%s' did not turn healthy in %s", spec.Name, spec.HealthDeadline())
		}
		time.Sleep(interval)
	}
}

// ServiceDownAction stops and removes a fixture service container
type ServiceDownAction struct {
	cfg     *v1.RunConfig
	name    string
	volumes bool
}

func NewServiceDownAction(cfg *v1.RunConfig, name string, volumes bool) *ServiceDownAction {
	return &ServiceDownAction{cfg: cfg, name: name, volumes: volumes}
}

func (s ServiceDownAction) Run() error {
	cfg := s.cfg
	ctx := context.Background()
	containerName := constants.ContainerPrefix + s.name

	status, err := cfg.Container.ServiceStatus(ctx, containerName)
	if err != nil {
		cfg.Logger.Warnf("No container found for service '%s', nothing to tear down", s.name)
		return nil
	}

	if status.Running {
		err = cfg.Container.StopService(ctx, status.ID)
		if err != nil {
			return testrigError.NewFromError(err, testrigError.StopContainer)
		}
	}

	err = cfg.Container.RemoveService(ctx, status.ID, s.volumes)
	if err != nil {
		return testrigError.NewFromError(err, testrigError.StopContainer)
	}
	cfg.Logger.Infof("Service '%s' removed", s.name)

	err = withState(cfg, func(state *v1.ProvisionState) error {
		state.DeleteFactsPrefix(fmt.Sprintf("service.%s.", s.name))
		return nil
	})
	if err != nil {
		return testrigError.NewFromError(err, testrigError.WriteState)
	}
	return nil
}

// ServiceStatus reads back the runtime state of a fixture service
func ServiceStatus(cfg *v1.RunConfig, name string) (*v1.ServiceStatus, error) {
	status, err := cfg.Container.ServiceStatus(context.Background(), constants.ContainerPrefix+name)
	if err != nil {
		return nil, testrigError.NewFromError(err, testrigError.ReadingFixture)
	}
	return status, nil
}
