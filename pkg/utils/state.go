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

package utils

import (
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// LoadProvisionState reads the state file at the given path, a missing file
// yields an empty state so provision runs can always record facts
func LoadProvisionState(fs v1.FS, path string) (*v1.ProvisionState, error) {
	state := v1.NewProvisionState()

	ok, err := Exists(fs, path)
	if err != nil {
		return state, err
	}
	if !ok {
		return state, nil
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		return state, err
	}

	err = yaml.Unmarshal(data, state)
	if err != nil {
		return state, err
	}

	return state, nil
}

// WriteProvisionState stamps the state with the current date and writes it
// atomically to the given path
func WriteProvisionState(fs v1.FS, path string, state *v1.ProvisionState) error {
	state.Date = time.Now().Format(time.RFC3339)

	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	err = MkdirAll(fs, filepath.Dir(path), constants.DirPerm)
	if err != nil {
		return err
	}

	return WriteFileAtomic(fs, path, data, constants.FilePerm)
}
