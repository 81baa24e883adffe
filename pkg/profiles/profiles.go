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

// Package profiles ships the embedded provisioning profiles a test host can
// be initialized with. A profile is a set of cloud-init documents dropped
// into the config.d directory plus the systemd units it enables.
package profiles

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	"github.com/rancher-sandbox/testrig/pkg/systemd"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

//go:embed embedded
var files embed.FS

const (
	embeddedRoot = "embedded"

	ProfileDefaults         = "defaults"
	ProfileCACertificates   = "ca-certificates"
	ProfileProxy            = "proxy"
	ProfileContainerRuntime = "container-runtime"
)

var (
	All = []string{
		ProfileDefaults,
		ProfileCACertificates,
		ProfileProxy,
		ProfileContainerRuntime,
	}
)

type Profile struct {
	Name        string
	Units       []*systemd.Unit
	ConfigFiles []*ConfigFile
}

type ConfigFile struct {
	Source      string
	Destination string
}

func NewConfigFile(source, destination string) *ConfigFile {
	return &ConfigFile{
		source,
		destination,
	}
}

func (c *ConfigFile) Install(srcFs embed.FS, destFs v1.FS) error {
	if err := utils.MkdirAll(destFs, filepath.Dir(c.Destination), constants.DirPerm); err != nil {
		return err
	}

	return ExtractFile(srcFs, c.Source, destFs, c.Destination)
}

func New(name string, units []*systemd.Unit, files []*ConfigFile) *Profile {
	return &Profile{
		name,
		units,
		files,
	}
}

func (p *Profile) Install(log v1.Logger, dstFs v1.FS, runner v1.Runner) error {
	for _, conf := range p.ConfigFiles {
		if err := conf.Install(files, dstFs); err != nil {
			log.Errorf("Error installing config-file '%s': %v", conf.Source, err.Error())
			return err
		}
	}

	for _, unit := range p.Units {
		log.Debugf("Enabling unit '%s'", unit.Name)
		if err := systemd.Enable(runner, unit); err != nil {
			log.Errorf("Error enabling unit '%s': %v", unit.Name, err.Error())
			return err
		}
	}

	return nil
}

func ExtractFile(srcFs embed.FS, srcPath string, dstFs v1.FS, dstPath string) error {
	content, err := srcFs.ReadFile(srcPath)
	if err != nil {
		return err
	}

	return dstFs.WriteFile(dstPath, content, 0644)
}

func configDest(file string) string {
	return filepath.Join(constants.ConfigExtraDirs, file)
}

func Get(names []string) ([]*Profile, error) {
	if len(names) == 0 {
		return []*Profile{}, nil
	}

	profiles := []*Profile{}
	notFound := []string{}

	for _, name := range names {
		switch name {
		case ProfileDefaults:
			configs := []*ConfigFile{
				NewConfigFile(filepath.Join(embeddedRoot, "01_defaults.yaml"), configDest("01_defaults.yaml")),
			}
			profiles = append(profiles, New(name, nil, configs))
		case ProfileCACertificates:
			configs := []*ConfigFile{
				NewConfigFile(filepath.Join(embeddedRoot, "02_ca-certificates.yaml"), configDest("02_ca-certificates.yaml")),
			}
			profiles = append(profiles, New(name, nil, configs))
		case ProfileProxy:
			configs := []*ConfigFile{
				NewConfigFile(filepath.Join(embeddedRoot, "03_proxy.yaml"), configDest("03_proxy.yaml")),
			}
			profiles = append(profiles, New(name, nil, configs))
		case ProfileContainerRuntime:
			configs := []*ConfigFile{
				NewConfigFile(filepath.Join(embeddedRoot, "04_container-runtime.yaml"), configDest("04_container-runtime.yaml")),
			}
			units := []*systemd.Unit{
				systemd.NewUnit("docker.service"),
			}
			profiles = append(profiles, New(name, units, configs))
		default:
			notFound = append(notFound, name)
		}
	}

	if len(notFound) != 0 {
		return profiles, fmt.Errorf("unknown profiles: %s", strings.Join(notFound, ", "))
	}

	return profiles, nil
}
