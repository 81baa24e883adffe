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

package config

import (
	"runtime"

	"github.com/twpayne/go-vfs"

	"github.com/rancher-sandbox/testrig/pkg/cloudinit"
	"github.com/rancher-sandbox/testrig/pkg/getter"
	"github.com/rancher-sandbox/testrig/pkg/http"
	"github.com/rancher-sandbox/testrig/pkg/luet"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

type GenericOptions func(a *v1.Config) error

func WithFs(fs v1.FS) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Fs = fs
		return nil
	}
}

func WithLogger(logger v1.Logger) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Logger = logger
		return nil
	}
}

func WithSyscall(syscall v1.SyscallInterface) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Syscall = syscall
		return nil
	}
}

func WithMounter(mounter v1.Mounter) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Mounter = mounter
		return nil
	}
}

func WithRunner(runner v1.Runner) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Runner = runner
		return nil
	}
}

func WithClient(client v1.HTTPClient) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Client = client
		return nil
	}
}

func WithGetter(g v1.GetterClient) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Getter = g
		return nil
	}
}

func WithCloudInitRunner(ci v1.CloudInitRunner) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.CloudInitRunner = ci
		return nil
	}
}

func WithLuet(l v1.LuetInterface) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Luet = l
		return nil
	}
}

func WithContainerRuntime(c v1.ContainerRuntime) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		r.Container = c
		return nil
	}
}

func WithPlatform(platform string) func(r *v1.Config) error {
	return func(r *v1.Config) error {
		p, err := v1.ParsePlatform(platform)
		r.Platform = p
		return err
	}
}

// NewConfig assembles the collaborator bundle with production defaults and
// applies the given overrides on top
func NewConfig(opts ...GenericOptions) *v1.Config {
	log := v1.NewLogger()

	defaultPlatform, err := v1.NewPlatformFromArch(runtime.GOARCH)
	if err != nil {
		log.Errorf("error parsing default platform (%s): %s", runtime.GOARCH, err.Error())
		return nil
	}

	c := &v1.Config{
		Fs:       vfs.OSFS,
		Logger:   log,
		Syscall:  &v1.RealSyscall{},
		Client:   http.NewClient(),
		Getter:   getter.NewClient(),
		Platform: defaultPlatform,
	}
	for _, o := range opts {
		err := o(c)
		if err != nil {
			log.Errorf("error applying config option: %s", err.Error())
			return nil
		}
	}

	// delay default collaborators until overrides are known, most of them
	// depend on the final logger and filesystem
	if c.Runner == nil {
		c.Runner = &v1.RealRunner{Logger: c.Logger}
	}
	if c.CloudInitRunner == nil {
		c.CloudInitRunner = cloudinit.NewYipCloudInitRunner(c.Logger, c.Runner, vfs.OSFS)
	}
	if c.Luet == nil {
		c.Luet = luet.NewLuet(
			luet.WithLogger(c.Logger),
			luet.WithFs(c.Fs),
			luet.WithArch(c.Platform.Arch),
		)
	}
	return c
}

// NewRunConfig returns a RunConfig bundle around a default Config
func NewRunConfig(opts ...GenericOptions) *v1.RunConfig {
	config := NewConfig(opts...)
	r := &v1.RunConfig{
		Config: *config,
	}
	return r
}

// NewInitSpec returns an InitSpec with the host bootstrap profile set
func NewInitSpec() *v1.InitSpec {
	return &v1.InitSpec{
		Profiles: []string{"defaults", "ca-certificates", "container-runtime"},
	}
}

// NewDeployToolSpec returns an empty tool spec for the config readers to
// fill in
func NewDeployToolSpec() *v1.DeployToolSpec {
	return &v1.DeployToolSpec{
		Source: v1.NewEmptySrc(),
	}
}

// NewVerifySpec returns an empty verification spec
func NewVerifySpec() *v1.VerifySpec {
	return &v1.VerifySpec{}
}
