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

package cloudinit_test

import (
	"bytes"
	"io/ioutil"
	"log"
	"os"
	"testing"

	"github.com/mudler/yip/pkg/schema"
	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-vfs/vfst"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/rancher-sandbox/testrig/pkg/cloudinit"
	v1mock "github.com/rancher-sandbox/testrig/pkg/mocks"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

func TestCloudInit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CloudInit runner test suite")
}

var _ = Describe("CloudRunner", Label("cloud-init"), func() {
	// unit test stolen from yip
	Describe("loading yaml files", func() {
		logger := logrus.New()
		logger.SetOutput(ioutil.Discard)

		It("executes commands", func() {
			fs2, cleanup2, err := vfst.NewTestFS(map[string]interface{}{})
			Expect(err).Should(BeNil())
			temp := fs2.TempDir()

			defer cleanup2()

			fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{
				"/some/yip/01_first.yaml": `
stages:
  test:
  - commands:
    - sed -i 's/boo/bar/g' ` + temp + `/tmp/test/bar
`,
				"/some/yip/02_second.yaml": `
stages:
  test:
  - commands:
    - sed -i 's/bar/baz/g' ` + temp + `/tmp/test/bar
`,
			})
			Expect(err).Should(BeNil())
			defer cleanup()

			err = fs2.Mkdir("/tmp", os.ModePerm)
			Expect(err).Should(BeNil())
			err = fs2.Mkdir("/tmp/test", os.ModePerm)
			Expect(err).Should(BeNil())

			err = fs2.WriteFile("/tmp/test/bar", []byte(`boo`), os.ModePerm)
			Expect(err).Should(BeNil())

			runner := NewYipCloudInitRunner(logger, &v1.RealRunner{}, fs)
			err = runner.Run("test", "/some/yip")
			Expect(err).Should(BeNil())
			file, err := os.Open(temp + "/tmp/test/bar")
			Expect(err).ShouldNot(HaveOccurred())

			b, err := ioutil.ReadAll(file)
			if err != nil {
				log.Fatal(err)
			}

			Expect(string(b)).Should(Equal("baz"))
		})
	})

	Describe("running stages", func() {
		var runner *v1mock.FakeRunner
		var fs *vfst.TestFS
		var cleanup func()
		var err error
		var logger v1.Logger

		BeforeEach(func() {
			runner = v1mock.NewFakeRunner()
			logger = v1.NewNullLogger()
			fs, cleanup, err = vfst.NewTestFS(map[string]interface{}{
				"/some/yip/setup.yaml": `
stages:
  setup:
  - commands:
    - zypper ref
`,
			})
			Expect(err).Should(BeNil())
		})
		AfterEach(func() {
			cleanup()
		})
		It("runs stage commands through the provided runner", func() {
			ci := NewYipCloudInitRunner(logger, runner, fs)
			Expect(ci.Run("setup", "/some/yip")).To(BeNil())
			Expect(runner.CmdsMatch([][]string{{"sh", "-c", "zypper ref"}})).To(BeNil())
		})
		It("ignores stages not present in the sources", func() {
			ci := NewYipCloudInitRunner(logger, runner, fs)
			Expect(ci.Run("missing-stage", "/some/yip")).To(BeNil())
			Expect(runner.CmdsMatch([][]string{})).To(BeNil())
		})
	})

	Describe("rendering files", func() {
		It("writes a cloud init file to the target path", func() {
			fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{})
			Expect(err).Should(BeNil())
			defer cleanup()

			ci := NewYipCloudInitRunner(v1.NewNullLogger(), v1mock.NewFakeRunner(), fs)
			conf := &schema.YipConfig{
				Name: "testrig setup",
				Stages: map[string][]schema.Stage{
					"setup": {{
						Commands: []string{"zypper ref"},
					}},
				},
			}
			Expect(ci.CloudInitFileRender("/etc/testrig/config.d/setup.yaml", conf)).To(BeNil())

			data, err := fs.ReadFile("/etc/testrig/config.d/setup.yaml")
			Expect(err).To(BeNil())
			Expect(bytes.Contains(data, []byte("zypper ref"))).To(BeTrue())
			Expect(bytes.Contains(data, []byte("testrig setup"))).To(BeTrue())
		})
	})
})
