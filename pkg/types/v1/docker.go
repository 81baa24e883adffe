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

package v1

import "context"

// ContainerRuntime abstracts the container engine operations needed to manage
// service fixtures. The context is required by the engine SDK, commands drive
// it strictly sequentially.
type ContainerRuntime interface {
	ImageExists(ctx context.Context, ref string) (bool, error)
	PullImage(ctx context.Context, ref string) error
	CreateService(ctx context.Context, spec *ServiceSpec) (string, error)
	StartService(ctx context.Context, id string) error
	StopService(ctx context.Context, id string) error
	RemoveService(ctx context.Context, id string, volumes bool) error
	ServiceStatus(ctx context.Context, name string) (*ServiceStatus, error)
}

// ServiceStatus is the runtime view of a fixture container
type ServiceStatus struct {
	ID      string   `yaml:"id,omitempty"`
	Name    string   `yaml:"name,omitempty"`
	Image   string   `yaml:"image,omitempty"`
	Running bool     `yaml:"running"`
	Health  string   `yaml:"health,omitempty"`
	Ports   []string `yaml:"ports,omitempty"`
}
