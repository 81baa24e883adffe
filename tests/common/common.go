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

package common

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var binary string

func init() {
	flag.StringVar(&binary, "testrig.binary", "testrig", "Path to the testrig binary under test")
}

// Testrig drives a testrig binary against a throwaway config and state dir
type Testrig struct {
	Binary    string
	ConfigDir string
	StatePath string
}

// NewTestrig creates a harness backed by a fresh temporary config dir. The
// state file is pinned inside that dir so runs never touch the host state.
func NewTestrig() (*Testrig, error) {
	dir, err := os.MkdirTemp("", "testrig-e2e")
	if err != nil {
		return nil, err
	}
	statePath := filepath.Join(dir, "state.yaml")
	err = os.WriteFile(
		filepath.Join(dir, "config.yaml"),
		[]byte(fmt.Sprintf("state-path: %s\n", statePath)),
		0644,
	)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	return &Testrig{Binary: binary, ConfigDir: dir, StatePath: statePath}, nil
}

// Cleanup drops the temporary config dir
func (t *Testrig) Cleanup() {
	if t.ConfigDir != "" {
		os.RemoveAll(t.ConfigDir)
	}
}

// Run executes the binary with the harness config dir and returns the
// combined output
func (t *Testrig) Run(args ...string) (string, error) {
	full := append([]string{"--config-dir", t.ConfigDir}, args...)
	out, err := exec.Command(t.Binary, full...).CombinedOutput()
	return string(out), err
}

// RunBare executes the binary without injecting the config dir, for commands
// that should work with no configuration at all
func (t *Testrig) RunBare(args ...string) (string, error) {
	out, err := exec.Command(t.Binary, args...).CombinedOutput()
	return string(out), err
}

// HasZypper reports whether the host can run repository operations
func HasZypper() bool {
	_, err := exec.LookPath("zypper")
	return err == nil
}

// IsRoot reports whether the suite runs with enough privileges for
// system-level provisioning commands
func IsRoot() bool {
	return os.Geteuid() == 0
}

// State reads back the raw provision state file content
func (t *Testrig) State() (string, error) {
	data, err := os.ReadFile(t.StatePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteConfig appends a raw yaml snippet to the harness config dir
func (t *Testrig) WriteConfig(name, content string) error {
	snippets := filepath.Join(t.ConfigDir, "config.d")
	if err := os.MkdirAll(snippets, 0755); err != nil {
		return err
	}
	if !strings.HasSuffix(name, ".yaml") {
		name += ".yaml"
	}
	return os.WriteFile(filepath.Join(snippets, name), []byte(content), 0644)
}
