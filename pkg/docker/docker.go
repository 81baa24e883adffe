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

// Package docker implements the ContainerRuntime interface on top of the
// docker engine API. It covers just what service fixtures need: pulling the
// image, creating and starting the container with its healthcheck and
// reading back the engine's health verdict.
package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/distribution/distribution/reference"
	dockTypes "github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

var _ v1.ContainerRuntime = (*Runtime)(nil)

type Runtime struct {
	log    v1.Logger
	client client.APIClient
}

type Options func(r *Runtime) error

// WithClient injects a preconfigured engine API client, used in tests
func WithClient(cli client.APIClient) func(r *Runtime) error {
	return func(r *Runtime) error {
		r.client = cli
		return nil
	}
}

// NewRuntime returns a Runtime talking to the engine configured in the
// environment, API version negotiation keeps it compatible with older
// daemons
func NewRuntime(log v1.Logger, opts ...Options) (*Runtime, error) {
	r := &Runtime{log: log}
	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}
	if r.client == nil {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			return nil, err
		}
		r.client = cli
	}
	return r, nil
}

func (r Runtime) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := r.client.ImageInspectWithRaw(ctx, ref)
	if client.IsErrNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r Runtime) PullImage(ctx context.Context, ref string) error {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return fmt.Errorf("invalid image reference '%s': %v", ref, err)
	}
	fullRef := reference.TagNameOnly(named).String()

	r.log.Infof("Pulling image %s", fullRef)
	reader, err := r.client.ImagePull(ctx, fullRef, dockTypes.ImagePullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	// the pull happens while the progress stream is consumed
	_, err = io.Copy(io.Discard, reader)
	return err
}

func (r Runtime) CreateService(ctx context.Context, spec *v1.ServiceSpec) (string, error) {
	exposed, bindings, err := nat.ParsePortSpecs(spec.Ports)
	if err != nil {
		return "", err
	}

	config := &container.Config{
		Image:        spec.Image,
		Env:          spec.Env,
		ExposedPorts: exposed,
	}
	if spec.Healthcheck != nil {
		config.Healthcheck = &container.HealthConfig{
			Test:        spec.Healthcheck.Test,
			Interval:    spec.Healthcheck.Interval,
			Timeout:     spec.Healthcheck.Timeout,
			StartPeriod: spec.Healthcheck.StartPeriod,
			Retries:     spec.Healthcheck.Retries,
		}
	}
	hostConfig := &container.HostConfig{PortBindings: bindings}

	r.log.Debugf("Creating container %s from image %s", spec.ContainerName, spec.Image)
	resp, err := r.client.ContainerCreate(ctx, config, hostConfig, nil, nil, spec.ContainerName)
	if err != nil {
		return "", err
	}
	for _, warn := range resp.Warnings {
		r.log.Warnf("Engine warning creating %s: %s", spec.ContainerName, warn)
	}
	return resp.ID, nil
}

func (r Runtime) StartService(ctx context.Context, id string) error {
	return r.client.ContainerStart(ctx, id, dockTypes.ContainerStartOptions{})
}

func (r Runtime) StopService(ctx context.Context, id string) error {
	timeout := constants.ContainerStopTimeout
	return r.client.ContainerStop(ctx, id, &timeout)
}

func (r Runtime) RemoveService(ctx context.Context, id string, volumes bool) error {
	return r.client.ContainerRemove(ctx, id, dockTypes.ContainerRemoveOptions{
		RemoveVolumes: volumes,
		Force:         true,
	})
}

func (r Runtime) ServiceStatus(ctx context.Context, name string) (*v1.ServiceStatus, error) {
	data, err := r.client.ContainerInspect(ctx, name)
	if err != nil {
		return nil, err
	}

	status := &v1.ServiceStatus{
		ID:     data.ID,
		Name:   strings.TrimPrefix(data.Name, "/"),
		Health: constants.HealthNone,
	}
	if data.Config != nil {
		status.Image = data.Config.Image
	}
	if data.State != nil {
		status.Running = data.State.Running
		if data.State.Health != nil {
			status.Health = data.State.Health.Status
		}
	}
	if data.NetworkSettings != nil {
		status.Ports = formatPorts(data.NetworkSettings.Ports)
	}
	return status, nil
}

// formatPorts renders the engine port map the way 'docker ps' does
func formatPorts(ports nat.PortMap) []string {
	out := []string{}
	for port, bindings := range ports {
		if len(bindings) == 0 {
			out = append(out, string(port))
			continue
		}
		for _, b := range bindings {
			out = append(out, fmt.Sprintf("%s:%s->%s", b.HostIP, b.HostPort, port))
		}
	}
	sort.Strings(out)
	return out
}
