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

// Package fixture loads single service container fixtures from a compose
// style YAML file. Only the subset of keys a test service needs is
// understood: image, ports, environment, env_file, container_name and the
// healthcheck block.
package fixture

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/distribution/distribution/reference"
	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

type fixtureYAML struct {
	Services map[string]yaml.Node `yaml:"services"`
}

type serviceYAML struct {
	Image         string           `yaml:"image"`
	ContainerName string           `yaml:"container_name"`
	Ports         []string         `yaml:"ports"`
	Environment   envVars          `yaml:"environment"`
	EnvFile       stringOrList     `yaml:"env_file"`
	Healthcheck   *healthcheckYAML `yaml:"healthcheck"`
}

type healthcheckYAML struct {
	Test        testCommand `yaml:"test"`
	Interval    string      `yaml:"interval"`
	Timeout     string      `yaml:"timeout"`
	StartPeriod string      `yaml:"start_period"`
	Retries     int         `yaml:"retries"`
}

// envVars accepts both the map and the 'KEY=value' list forms of the
// compose environment key
type envVars []string

func (e *envVars) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*e = list
	case yaml.MappingNode:
		var m map[string]string
		if err := value.Decode(&m); err != nil {
			return err
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			*e = append(*e, fmt.Sprintf("%s=%s", k, m[k]))
		}
	default:
		return fmt.Errorf("environment must be a map or a list")
	}
	return nil
}

// stringOrList accepts a scalar or a sequence of strings
type stringOrList []string

func (s *stringOrList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*s = []string{single}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

// testCommand accepts the healthcheck test in its shell string form or the
// exec list form with a CMD or CMD-SHELL prefix
type testCommand []string

func (t *testCommand) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*t = []string{"CMD-SHELL", single}
		return nil
	}
	var list []string
	if err := value.Decode(&list); err != nil {
		return err
	}
	if len(list) == 0 || (list[0] != "CMD" && list[0] != "CMD-SHELL" && list[0] != "NONE") {
		return fmt.Errorf("healthcheck test list must start with CMD, CMD-SHELL or NONE")
	}
	*t = list
	return nil
}

// Load reads the fixture file and returns the normalized spec of the named
// service. An empty name is accepted when the file defines a single service.
func Load(fs v1.FS, path string, name string) (*v1.ServiceSpec, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fix := &fixtureYAML{}
	err = yaml.Unmarshal(data, fix)
	if err != nil {
		return nil, err
	}
	if len(fix.Services) == 0 {
		return nil, fmt.Errorf("no services defined in '%s'", path)
	}

	node, name, err := selectService(fix.Services, name, path)
	if err != nil {
		return nil, err
	}

	srv := &serviceYAML{}
	err = strictDecode(node, srv)
	if err != nil {
		return nil, fmt.Errorf("invalid service '%s': %v", name, err)
	}

	return normalize(fs, filepath.Dir(path), name, srv)
}

// ServiceNames returns the service names defined in the fixture file sorted
// alphabetically
func ServiceNames(fs v1.FS, path string) ([]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fix := &fixtureYAML{}
	err = yaml.Unmarshal(data, fix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(fix.Services))
	for n := range fix.Services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func selectService(services map[string]yaml.Node, name string, path string) (yaml.Node, string, error) {
	if name == "" {
		if len(services) > 1 {
			return yaml.Node{}, "", fmt.Errorf("fixture '%s' defines %d services, a service name is required", path, len(services))
		}
		for n, node := range services {
			return node, n, nil
		}
	}
	node, ok := services[name]
	if !ok {
		return yaml.Node{}, "", fmt.Errorf("no service '%s' in fixture '%s'", name, path)
	}
	return node, name, nil
}

// strictDecode rejects unknown keys at the service level, typos in a fixture
// are configuration errors not data to silently drop
func strictDecode(node yaml.Node, out interface{}) error {
	raw, err := yaml.Marshal(&node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(out)
}

func normalize(fs v1.FS, baseDir string, name string, srv *serviceYAML) (*v1.ServiceSpec, error) {
	if srv.Image == "" {
		return nil, fmt.Errorf("service '%s' defines no image", name)
	}
	if _, err := reference.ParseNormalizedNamed(srv.Image); err != nil {
		return nil, fmt.Errorf("invalid image reference '%s': %v", srv.Image, err)
	}
	if _, _, err := nat.ParsePortSpecs(srv.Ports); err != nil {
		return nil, fmt.Errorf("invalid port specification for service '%s': %v", name, err)
	}

	env := []string{}
	for _, f := range srv.EnvFile {
		if !filepath.IsAbs(f) {
			f = filepath.Join(baseDir, f)
		}
		fileEnv, err := utils.LoadEnvFile(fs, f)
		if err != nil {
			return nil, fmt.Errorf("failed loading env_file '%s': %v", f, err)
		}
		keys := make([]string, 0, len(fileEnv))
		for k := range fileEnv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			env = append(env, fmt.Sprintf("%s=%s", k, fileEnv[k]))
		}
	}
	// explicit environment entries take precedence over env_file values
	env = append(env, srv.Environment...)

	spec := &v1.ServiceSpec{
		Name:          name,
		Image:         srv.Image,
		ContainerName: srv.ContainerName,
		Ports:         srv.Ports,
		Env:           env,
	}

	if srv.Healthcheck != nil {
		hc, err := normalizeHealthcheck(srv.Healthcheck)
		if err != nil {
			return nil, fmt.Errorf("invalid healthcheck for service '%s': %v", name, err)
		}
		spec.Healthcheck = hc
	}

	err := spec.Sanitize()
	if err != nil {
		return nil, err
	}
	return spec, nil
}

func normalizeHealthcheck(hc *healthcheckYAML) (*v1.Healthcheck, error) {
	out := &v1.Healthcheck{
		Test:    hc.Test,
		Retries: hc.Retries,
	}

	var err error
	out.Interval, err = parseDuration(hc.Interval)
	if err != nil {
		return nil, err
	}
	out.Timeout, err = parseDuration(hc.Timeout)
	if err != nil {
		return nil, err
	}
	out.StartPeriod, err = parseDuration(hc.StartPeriod)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	return time.ParseDuration(value)
}
