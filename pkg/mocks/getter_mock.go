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

package mocks

import (
	"errors"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// FakeGetterClient is an implementation of GetterClient interface used for
// testing, it mirrors FakeHTTPClient but stands for archive aware downloads
type FakeGetterClient struct {
	ClientCalls []string
	Error       bool
	SideEffect  func(url string, destination string) error
}

// GetURL stores the url call into ClientCalls and runs the side effect, if any
func (m *FakeGetterClient) GetURL(_ v1.Logger, url string, destination string) error {
	m.ClientCalls = append(m.ClientCalls, url)
	if m.Error {
		return errors.New("fake getter error")
	}
	if m.SideEffect != nil {
		return m.SideEffect(url, destination)
	}
	return nil
}

// WasGetCalledWith is a helper method to confirm that the client was called with the give url
func (m *FakeGetterClient) WasGetCalledWith(url string) bool {
	for _, c := range m.ClientCalls {
		if c == url {
			return true
		}
	}
	return false
}
