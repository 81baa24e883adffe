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
	"fmt"
	"path/filepath"
	"time"

	"github.com/rancher-sandbox/testrig/pkg/constants"
)

// Config is the struct that includes basic and generic configuration of
// testrig binary runtime. It mostly includes the interfaces used around
// many methods in testrig code
type Config struct {
	Logger          Logger
	Fs              FS
	Mounter         Mounter
	Runner          Runner
	Syscall         SyscallInterface
	CloudInitRunner CloudInitRunner
	Luet            LuetInterface
	Client          HTTPClient
	Getter          GetterClient
	Container       ContainerRuntime
	Platform        *Platform        `yaml:"platform,omitempty" mapstructure:"platform"`
	LocalImage      bool             `yaml:"local,omitempty" mapstructure:"local"`
	Repos           []Repository     `yaml:"repositories,omitempty" mapstructure:"repositories"`
	Tools           []DeployToolSpec `yaml:"tools,omitempty" mapstructure:"tools"`
}

// RunConfig is the struct to hold runtime configuration for all the provision
// commands
type RunConfig struct {
	Strict         bool     `yaml:"strict,omitempty" mapstructure:"strict"`
	CloudInitPaths []string `yaml:"cloud-init-paths,omitempty" mapstructure:"cloud-init-paths"`
	StatePath      string   `yaml:"state-path,omitempty" mapstructure:"state-path"`

	// 'inline' and 'squash' labels ensure config fields
	// are embedded from a yaml and map PoV
	Config `yaml:",inline" mapstructure:",squash"`
}

// Sanitize checks the consistency of the RunConfig and applies the defaults
// for any missing value
func (r *RunConfig) Sanitize() error {
	if r.StatePath == "" {
		r.StatePath = filepath.Join(constants.StateDir, constants.StateFile)
	}
	for i := range r.Repos {
		if err := r.Repos[i].Sanitize(); err != nil {
			return err
		}
	}
	return nil
}

// Repository represents a zypper package repository entry
type Repository struct {
	Alias    string `yaml:"alias,omitempty" mapstructure:"alias"`
	Name     string `yaml:"name,omitempty" mapstructure:"name"`
	URI      string `yaml:"uri,omitempty" mapstructure:"uri"`
	Priority int    `yaml:"priority,omitempty" mapstructure:"priority"`
	Refresh  bool   `yaml:"refresh,omitempty" mapstructure:"refresh"`
	Disabled bool   `yaml:"disabled,omitempty" mapstructure:"disabled"`
	GPGCheck bool   `yaml:"gpgcheck,omitempty" mapstructure:"gpgcheck"`
}

// Sanitize applies the repository defaults, the alias falls back to the name
// and the priority to zypper's default
func (r *Repository) Sanitize() error {
	if r.Alias == "" {
		r.Alias = r.Name
	}
	if r.Alias == "" {
		return fmt.Errorf("repository with URI '%s' has no alias nor name", r.URI)
	}
	if r.Priority == 0 {
		r.Priority = constants.DefaultPriority
	}
	return nil
}

// Enabled is the positive form of the Disabled toggle, zypper output and
// repo files both speak in terms of enabled
func (r Repository) Enabled() bool {
	return !r.Disabled
}

// VersionCheck describes how the installed version of a tool is detected,
// the first capture group of the regex is the version string
type VersionCheck struct {
	Command string `yaml:"command,omitempty" mapstructure:"command"`
	Regex   string `yaml:"regex,omitempty" mapstructure:"regex"`
}

// DeployToolSpec is the struct to hold the parameters of a single tool
// deployment
type DeployToolSpec struct {
	Name       string       `yaml:"name,omitempty" mapstructure:"name"`
	Version    string       `yaml:"version,omitempty" mapstructure:"version"`
	Source     *ToolSource  `yaml:"source,omitempty" mapstructure:"source"`
	Binary     string       `yaml:"binary,omitempty" mapstructure:"binary"`
	InstallDir string       `yaml:"install-dir,omitempty" mapstructure:"install-dir"`
	Checksum   string       `yaml:"checksum,omitempty" mapstructure:"checksum"`
	Check      VersionCheck `yaml:"check,omitempty" mapstructure:"check"`
	Sysroot    string       `yaml:"sysroot,omitempty" mapstructure:"sysroot"`
	Force      bool         `yaml:"force,omitempty" mapstructure:"force"`
}

// Sanitize checks the consistency of the spec and applies the defaults for
// any missing value
func (d *DeployToolSpec) Sanitize() error {
	if d.Name == "" {
		return fmt.Errorf("undefined tool name")
	}
	if d.Source == nil || d.Source.IsEmpty() {
		return fmt.Errorf("undefined source for tool '%s'", d.Name)
	}
	if d.Binary == "" {
		d.Binary = d.Name
	}
	if d.InstallDir == "" {
		d.InstallDir = constants.DefaultInstallDir
	}
	if d.Check.Command == "" {
		d.Check.Command = fmt.Sprintf("%s %s", d.Binary, constants.DefaultVersionArg)
	}
	if d.Check.Regex == "" {
		d.Check.Regex = constants.DefaultVersionRegex
	}
	return nil
}

// Healthcheck mirrors the healthcheck block of a compose service entry
type Healthcheck struct {
	Test        []string      `yaml:"test,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	StartPeriod time.Duration `yaml:"start_period,omitempty"`
	Retries     int           `yaml:"retries,omitempty"`
}

// ServiceSpec is the normalized form of a single service fixture entry
type ServiceSpec struct {
	Name          string       `yaml:"name,omitempty"`
	Image         string       `yaml:"image,omitempty"`
	ContainerName string       `yaml:"container_name,omitempty"`
	Ports         []string     `yaml:"ports,omitempty"`
	Env           []string     `yaml:"environment,omitempty"`
	Healthcheck   *Healthcheck `yaml:"healthcheck,omitempty"`
}

// Sanitize checks the consistency of the spec and applies the defaults for
// any missing value
func (s *ServiceSpec) Sanitize() error {
	if s.Name == "" {
		return fmt.Errorf("undefined service name")
	}
	if s.Image == "" {
		return fmt.Errorf("undefined image for service '%s'", s.Name)
	}
	if s.ContainerName == "" {
		s.ContainerName = constants.ContainerPrefix + s.Name
	}
	if s.Healthcheck != nil {
		if s.Healthcheck.Interval == 0 {
			s.Healthcheck.Interval = constants.HealthcheckInterval
		}
		if s.Healthcheck.Timeout == 0 {
			s.Healthcheck.Timeout = constants.HealthcheckTimeout
		}
		if s.Healthcheck.Retries == 0 {
			s.Healthcheck.Retries = constants.HealthcheckRetries
		}
	}
	return nil
}

// HealthDeadline returns how long a service can reasonably take to turn
// healthy, derived from the engine's own healthcheck parameters
func (s *ServiceSpec) HealthDeadline() time.Duration {
	if s.Healthcheck == nil {
		return 0
	}
	h := s.Healthcheck
	return h.StartPeriod + (h.Interval+h.Timeout)*time.Duration(h.Retries+1)
}

// Check is a single verification assertion, either a command whose exit
// status and combined output are matched or a file presence/content
// inspection
type Check struct {
	Name        string   `yaml:"name,omitempty" mapstructure:"name"`
	Command     string   `yaml:"command,omitempty" mapstructure:"command"`
	ExitStatus  int      `yaml:"exit_status,omitempty" mapstructure:"exit_status"`
	Contains    []string `yaml:"contains,omitempty" mapstructure:"contains"`
	NotContains []string `yaml:"not_contains,omitempty" mapstructure:"not_contains"`
	File        string   `yaml:"file,omitempty" mapstructure:"file"`
	Exists      *bool    `yaml:"exists,omitempty" mapstructure:"exists"`
	AllowFail   bool     `yaml:"allow_fail,omitempty" mapstructure:"allow_fail"`
}

// VerifySpec is the struct to hold a verification checks run
type VerifySpec struct {
	Checks []Check `yaml:"checks,omitempty" mapstructure:"checks"`
}

// Sanitize checks the consistency of the spec and applies the defaults for
// any missing value
func (v *VerifySpec) Sanitize() error {
	for i := range v.Checks {
		c := &v.Checks[i]
		if c.Command == "" && c.File == "" {
			return fmt.Errorf("check %d defines neither a command nor a file", i+1)
		}
		if c.Command != "" && c.File != "" {
			return fmt.Errorf("check %d defines both a command and a file", i+1)
		}
		if c.ExitStatus != 0 && c.Command == "" {
			return fmt.Errorf("check %d sets an exit status without a command", i+1)
		}
		if c.Name == "" {
			if c.Command != "" {
				c.Name = c.Command
			} else {
				c.Name = c.File
			}
		}
	}
	return nil
}

// InitSpec is the struct to hold the parameters of an init action
type InitSpec struct {
	Profiles []string `yaml:"profiles,omitempty" mapstructure:"profiles"`
	Force    bool     `yaml:"force,omitempty" mapstructure:"force"`
	Run      bool     `yaml:"run,omitempty" mapstructure:"run"`
}

// ProvisionState holds the flat key/value facts recorded during provision
// runs
type ProvisionState struct {
	Date  string            `yaml:"date,omitempty"`
	Facts map[string]string `yaml:"facts,omitempty"`
}

func NewProvisionState() *ProvisionState {
	return &ProvisionState{Facts: map[string]string{}}
}

// SetFact records a single fact, overwriting any previous value of the key
func (p *ProvisionState) SetFact(key, value string) {
	if p.Facts == nil {
		p.Facts = map[string]string{}
	}
	p.Facts[key] = value
}

// GetFact returns the value of a fact and whether it is set
func (p *ProvisionState) GetFact(key string) (string, bool) {
	if p.Facts == nil {
		return "", false
	}
	value, found := p.Facts[key]
	return value, found
}

// DeleteFactsPrefix drops all facts under the given key prefix
func (p *ProvisionState) DeleteFactsPrefix(prefix string) {
	for k := range p.Facts {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(p.Facts, k)
		}
	}
}
