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

package mocks

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

var _ v1.ContainerRuntime = (*FakeContainerRuntime)(nil)

// FakeContainerRuntime is an in memory implementation of ContainerRuntime
// used for testing. Containers are plain map entries, health states can be
// scripted through HealthSequence to simulate a service turning healthy
// after a few probes.
type FakeContainerRuntime struct {
	LocalImages    []string
	PulledImages   []string
	HealthSequence []string
	ErrorOnPull    bool
	ErrorOnCreate  bool
	ErrorOnStart   bool
	ErrorOnStop    bool
	ErrorOnRemove  bool
	ErrorOnStatus  bool

	containers  map[string]*v1.ServiceStatus
	healthIndex int
	nextID      int
}

func NewFakeContainerRuntime() *FakeContainerRuntime {
	return &FakeContainerRuntime{containers: map[string]*v1.ServiceStatus{}}
}

func (f *FakeContainerRuntime) ImageExists(_ context.Context, ref string) (bool, error) {
	for _, img := range append(f.LocalImages, f.PulledImages...) {
		if img == ref {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeContainerRuntime) PullImage(_ context.Context, ref string) error {
	if f.ErrorOnPull {
		return errors.New("pull error")
	}
	f.PulledImages = append(f.PulledImages, ref)
	return nil
}

func (f *FakeContainerRuntime) CreateService(_ context.Context, spec *v1.ServiceSpec) (string, error) {
	if f.ErrorOnCreate {
		return "", errors.New("create error")
	}
	f.nextID++
	id := fmt.Sprintf("fake-%d", f.nextID)
	f.containers[spec.ContainerName] = &v1.ServiceStatus{
		ID:    id,
		Name:  spec.ContainerName,
		Image: spec.Image,
		Ports: spec.Ports,
	}
	return id, nil
}

func (f *FakeContainerRuntime) StartService(_ context.Context, id string) error {
	if f.ErrorOnStart {
		return errors.New("start error")
	}
	for _, c := range f.containers {
		if c.ID == id {
			c.Running = true
			return nil
		}
	}
	return fmt.Errorf("no such container '%s'", id)
}

func (f *FakeContainerRuntime) StopService(_ context.Context, id string) error {
	if f.ErrorOnStop {
		return errors.New("stop error")
	}
	for _, c := range f.containers {
		if c.ID == id {
			c.Running = false
			return nil
		}
	}
	return fmt.Errorf("no such container '%s'", id)
}

func (f *FakeContainerRuntime) RemoveService(_ context.Context, id string, _ bool) error {
	if f.ErrorOnRemove {
		return errors.New("remove error")
	}
	for name, c := range f.containers {
		if c.ID == id {
			delete(f.containers, name)
			return nil
		}
	}
	return fmt.Errorf("no such container '%s'", id)
}

func (f *FakeContainerRuntime) ServiceStatus(_ context.Context, name string) (*v1.ServiceStatus, error) {
	if f.ErrorOnStatus {
		return nil, errors.New("status error")
	}
	c, ok := f.containers[name]
	if !ok {
		return nil, fmt.Errorf("no such container '%s'", name)
	}
	status := *c
	if len(f.HealthSequence) > 0 {
		if f.healthIndex >= len(f.HealthSequence) {
			status.Health = f.HealthSequence[len(f.HealthSequence)-1]
		} else {
			status.Health = f.HealthSequence[f.healthIndex]
			f.healthIndex++
		}
	}
	return &status, nil
}

// WasPulled is a helper method to confirm the image was pulled during the test
func (f *FakeContainerRuntime) WasPulled(ref string) bool {
	for _, img := range f.PulledImages {
		if img == ref {
			return true
		}
	}
	return false
}

// HasContainer is a helper method to check a container exists by name
func (f *FakeContainerRuntime) HasContainer(name string) bool {
	_, ok := f.containers[name]
	return ok
}
