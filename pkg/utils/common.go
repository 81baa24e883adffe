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
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/joho/godotenv"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// CalcFileChecksum opens the given file and returns the sha256 checksum of it.
func CalcFileChecksum(fs v1.FS, fileName string) (string, error) {
	f, err := fs.Open(fileName)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// LoadEnvFile reads a file in shell compatible KEY=value syntax and returns
// its content as a map
func LoadEnvFile(fs v1.FS, file string) (map[string]string, error) {
	data, err := fs.ReadFile(file)
	if err != nil {
		return nil, err
	}

	envMap, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, err
	}

	return envMap, nil
}

// GetOSRelease parses the os-release file of the given root and returns its fields
func GetOSRelease(fs v1.FS, rootDir string) (map[string]string, error) {
	return LoadEnvFile(fs, filepath.Join(rootDir, constants.OSReleasePath))
}

// GetHostDistro returns the host distribution ID as reported by os-release,
// empty if it cannot be determined
func GetHostDistro(fs v1.FS) string {
	osRelease, err := GetOSRelease(fs, "/")
	if err != nil {
		return ""
	}
	return strings.ToLower(osRelease["ID"])
}

// IsHTTPURI checks if the given string is a valid http or https URI
func IsHTTPURI(uri string) (bool, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return false, err
	}
	return u.Scheme == "http" || u.Scheme == "https", nil
}

// ValidContainerReference checks if the given string matches
// a container reference
func ValidContainerReference(ref string) bool {
	if _, err := name.ParseReference(ref, name.StrictValidation); err != nil {
		return false
	}
	return true
}
