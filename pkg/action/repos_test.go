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

package action_test

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"

	"github.com/rancher-sandbox/testrig/pkg/action"
	"github.com/rancher-sandbox/testrig/pkg/config"
	"github.com/rancher-sandbox/testrig/pkg/mocks"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

const emptyRepoListXML = `<?xml version='1.0'?>
<stream>
<repo-list>
</repo-list>
</stream>
`

const chromeRepoListXML = `<?xml version='1.0'?>
<stream>
<repo-list>
<repo alias="google-chrome" name="google-chrome" type="rpm-md" priority="99" enabled="1" autorefresh="1" gpgcheck="1">
<url>http://dl.google.com/linux/chrome/rpm/stable/x86_64</url>
</repo>
</repo-list>
</stream>
`

var _ = Describe("ApplyReposAction", Label("action", "repos"), func() {
	var cfg *v1.RunConfig
	var runner *mocks.FakeRunner
	var fs vfs.FS
	var cleanup func()
	var listXML string

	BeforeEach(func() {
		runner = mocks.NewFakeRunner()
		fs, cleanup, _ = vfst.NewTestFS(map[string]interface{}{})
		listXML = emptyRepoListXML
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			for _, a := range args {
				if a == "lr" {
					return []byte(listXML), nil
				}
			}
			return []byte{}, nil
		}
		cfg = config.NewRunConfig(
			config.WithFs(fs),
			config.WithRunner(runner),
			config.WithLogger(v1.NewNullLogger()),
			config.WithMounter(mocks.NewFakeMounter()),
		)
		cfg.Repos = []v1.Repository{{
			Alias:    "google-chrome",
			URI:      "http://dl.google.com/linux/chrome/rpm/stable/x86_64",
			Refresh:  true,
			GPGCheck: true,
		}}
		for i := range cfg.Repos {
			cfg.Repos[i].Sanitize()
		}
	})
	AfterEach(func() {
		cleanup()
	})
	It("adds a missing repository and records the change", func() {
		apply := action.NewApplyReposAction(cfg, "", false)
		Expect(apply.Run()).To(Succeed())
		Expect(runner.IncludesCmds([][]string{
			{"zypper", "--non-interactive", "ar"},
		})).To(BeNil())

		state, err := utils.LoadProvisionState(fs, cfg.StatePath)
		Expect(err).To(BeNil())
		changed, ok := state.GetFact("repo.google-chrome.changed")
		Expect(ok).To(BeTrue())
		Expect(changed).To(Equal("true"))
	})
	It("leaves a matching repository untouched", func() {
		listXML = chromeRepoListXML
		apply := action.NewApplyReposAction(cfg, "", false)
		Expect(apply.Run()).To(Succeed())
		for _, cmd := range [][]string{{"zypper", "--non-interactive", "ar"}} {
			Expect(runner.IncludesCmds([][]string{cmd})).NotTo(BeNil())
		}
		state, err := utils.LoadProvisionState(fs, cfg.StatePath)
		Expect(err).To(BeNil())
		changed, _ := state.GetFact("repo.google-chrome.changed")
		Expect(changed).To(Equal("false"))
	})
	It("refreshes only the repositories it changed", func() {
		apply := action.NewApplyReposAction(cfg, "", true)
		Expect(apply.Run()).To(Succeed())
		Expect(runner.IncludesCmds([][]string{
			{"zypper", "--non-interactive", "--gpg-auto-import-keys", "ref", "google-chrome"},
		})).To(BeNil())
	})
	It("skips the refresh when nothing changed", func() {
		listXML = chromeRepoListXML
		apply := action.NewApplyReposAction(cfg, "", true)
		Expect(apply.Run()).To(Succeed())
		Expect(runner.IncludesCmds([][]string{{"zypper", "--non-interactive", "--gpg-auto-import-keys", "ref"}})).NotTo(BeNil())
	})
	It("warns when the host is not zypper based", func() {
		Expect(utils.MkdirAll(fs, "/etc", 0755)).To(Succeed())
		Expect(fs.WriteFile("/etc/os-release", []byte("ID=debian\n"), 0644)).To(Succeed())

		memLog := &bytes.Buffer{}
		cfg.Logger = v1.NewBufferLogger(memLog)

		apply := action.NewApplyReposAction(cfg, "", false)
		Expect(apply.Run()).To(Succeed())
		Expect(memLog.String()).To(ContainSubstring("does not look zypper based"))
	})
	It("stays quiet on a SUSE host", func() {
		Expect(utils.MkdirAll(fs, "/etc", 0755)).To(Succeed())
		Expect(fs.WriteFile("/etc/os-release", []byte("ID=\"opensuse-leap\"\n"), 0644)).To(Succeed())

		memLog := &bytes.Buffer{}
		cfg.Logger = v1.NewBufferLogger(memLog)

		apply := action.NewApplyReposAction(cfg, "", false)
		Expect(apply.Run()).To(Succeed())
		Expect(memLog.String()).NotTo(ContainSubstring("does not look zypper based"))
	})
	It("is a no-op without configured repositories", func() {
		cfg.Repos = nil
		apply := action.NewApplyReposAction(cfg, "", true)
		Expect(apply.Run()).To(Succeed())
		Expect(runner.CmdsMatch([][]string{})).To(BeNil())
	})
	It("aggregates repository failures", func() {
		runner.SideEffect = func(command string, args ...string) ([]byte, error) {
			for _, a := range args {
				if a == "lr" {
					return []byte(listXML), nil
				}
			}
			return []byte{}, errors.New("zypper failed")
		}
		apply := action.NewApplyReposAction(cfg, "", false)
		Expect(apply.Run()).NotTo(Succeed())
	})
})
