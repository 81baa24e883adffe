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

package getter

import (
	"context"

	"github.com/hashicorp/go-getter"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

// GetURL downloads the given source into the destination directory unpacking
// archives on the fly. Source formats and the optional checksum query follow
// the go-getter URL syntax.
func (c Client) GetURL(log v1.Logger, url string, destination string) error { // nolint:revive
	client := &getter.Client{
		Ctx:  context.Background(),
		Src:  url,
		Dst:  destination,
		Mode: getter.ClientModeDir,
	}

	log.Infof("Fetching %s...", url)
	err := client.Get()
	if err != nil {
		log.Errorf("Failed fetching %s: %v", url, err)
		return err
	}

	log.Debugf("Fetched %s to %s", url, destination)
	return nil
}
