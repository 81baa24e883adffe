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

import (
	luetTypes "github.com/mudler/luet/pkg/api/core/types"
)

type LuetInterface interface {
	Unpack(target string, image string, local bool) (*DockerImageMeta, error)
	UnpackFromChannel(target string, pkg string, repos ...Repository) (*ChannelImageMeta, error)
	OverrideConfig(config *luetTypes.LuetConfig)
	SetPlugins(plugins ...string)
	GetPlugins() []string
	SetArch(arch string)
	SetTempDir(tmpdir string)
}

// DockerImageMeta describes the unpacked container image
type DockerImageMeta struct {
	Digest string `yaml:"digest,omitempty"`
	Size   int64  `yaml:"size,omitempty"`
}

// ChannelImageMeta describes the package unpacked from a channel
type ChannelImageMeta struct {
	Category    string       `yaml:"category,omitempty"`
	Name        string       `yaml:"name,omitempty"`
	Version     string       `yaml:"version,omitempty"`
	FingerPrint string       `yaml:"finger-print,omitempty"`
	Repos       []Repository `yaml:"repositories,omitempty"`
}
