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
	"strings"

	"github.com/distribution/distribution/reference"
	"gopkg.in/yaml.v3"
)

const (
	docker  = "docker"
	oci     = "oci"
	file    = "file"
	dir     = "dir"
	channel = "channel"
	http    = "http"
	https   = "https"
)

var archiveSuffixes = []string{".tar.gz", ".tgz", ".tar.xz", ".tar.bz2", ".tar", ".zip"}

// ToolSource represents the source from where a tool payload is fetched for
// easy identification
type ToolSource struct {
	source  string
	srcType string
}

func (t ToolSource) Value() string {
	return t.source
}

func (t ToolSource) IsDocker() bool {
	return t.srcType == docker
}

func (t ToolSource) IsChannel() bool {
	return t.srcType == channel
}

func (t ToolSource) IsDir() bool {
	return t.srcType == dir
}

func (t ToolSource) IsFile() bool {
	return t.srcType == file
}

func (t ToolSource) IsHTTP() bool {
	return t.srcType == http
}

func (t ToolSource) IsEmpty() bool {
	return t.srcType == "" || t.source == ""
}

// IsArchive reports whether an HTTP source points to an archive that requires
// unpacking before the binary can be staged
func (t ToolSource) IsArchive() bool {
	if !t.IsHTTP() {
		return false
	}
	value := t.source
	if idx := strings.IndexAny(value, "?#"); idx >= 0 {
		value = value[:idx]
	}
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(value, suffix) {
			return true
		}
	}
	return false
}

func (t ToolSource) String() string {
	switch t.srcType {
	case "":
		return ""
	case http:
		return t.source
	default:
		return fmt.Sprintf("%s://%s", t.srcType, t.source)
	}
}

func NewEmptySrc() *ToolSource {
	return &ToolSource{}
}

func NewDockerSrc(src string) *ToolSource {
	return &ToolSource{source: src, srcType: docker}
}

func NewFileSrc(src string) *ToolSource {
	return &ToolSource{source: src, srcType: file}
}

func NewChannelSrc(src string) *ToolSource {
	return &ToolSource{source: src, srcType: channel}
}

func NewDirSrc(src string) *ToolSource {
	return &ToolSource{source: src, srcType: dir}
}

func NewHTTPSrc(src string) *ToolSource {
	return &ToolSource{source: src, srcType: http}
}

func NewSrcFromURI(uri string) (*ToolSource, error) {
	src := ToolSource{}
	err := src.updateFromURI(uri)
	return &src, err
}

func (t *ToolSource) updateFromURI(uri string) error {
	scheme, value := parseURI(uri)
	switch scheme {
	case oci, docker:
		return t.parseImageReference(value)
	case dir:
		t.srcType = dir
		t.source = value
	case file:
		t.srcType = file
		t.source = value
	case http, https:
		t.srcType = http
		t.source = uri
	case channel:
		t.srcType = channel
		t.source = value
	default:
		// no scheme defaults to a package channel reference
		t.srcType = channel
		t.source = uri
	}

	if t.source == "" {
		return fmt.Errorf("invalid tool source, nothing to parse in %s", uri)
	}
	return nil
}

func (t *ToolSource) parseImageReference(ref string) error {
	n, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return fmt.Errorf("invalid image reference %s", ref)
	} else if reference.IsNameOnly(n) {
		ref += ":latest"
	}
	t.srcType = docker
	t.source = ref
	return nil
}

// parseURI splits an URI into scheme and value, "scheme://value" and
// "scheme:value" forms are both understood
func parseURI(uri string) (string, string) {
	split := strings.SplitN(uri, "://", 2)
	if len(split) == 2 {
		return strings.ToLower(split[0]), split[1]
	}
	split = strings.SplitN(uri, ":", 2)
	if len(split) == 2 && !strings.Contains(split[0], "/") {
		return strings.ToLower(split[0]), split[1]
	}
	return "", uri
}

// CustomToolSourceUnmarshaler provides viper compatible custom unmarshaling
// for a ToolSource instance
func (t *ToolSource) CustomUnmarshal(data interface{}) (bool, error) {
	src, ok := data.(string)
	if !ok {
		return false, fmt.Errorf("can't unmarshal %+v to a ToolSource type", data)
	}
	err := t.updateFromURI(src)
	return false, err
}

func (t ToolSource) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *ToolSource) UnmarshalYAML(value *yaml.Node) error {
	var uri string

	err := value.Decode(&uri)
	if err != nil {
		return err
	}
	return t.updateFromURI(uri)
}
