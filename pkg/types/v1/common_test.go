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

package v1_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

func TestTypes(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Types test suite")
}

var _ = Describe("Types", Label("types", "common"), func() {
	Describe("ToolSource", func() {
		It("initiates each type as expected", func() {
			o := &v1.ToolSource{}
			Expect(o.Value()).To(Equal(""))
			Expect(o.IsDir()).To(BeFalse())
			Expect(o.IsChannel()).To(BeFalse())
			Expect(o.IsDocker()).To(BeFalse())
			Expect(o.IsFile()).To(BeFalse())
			Expect(o.IsHTTP()).To(BeFalse())
			o = v1.NewDirSrc("dir")
			Expect(o.IsDir()).To(BeTrue())
			o = v1.NewFileSrc("file")
			Expect(o.IsFile()).To(BeTrue())
			o = v1.NewDockerSrc("image")
			Expect(o.IsDocker()).To(BeTrue())
			o = v1.NewChannelSrc("channel")
			Expect(o.IsChannel()).To(BeTrue())
			o = v1.NewHTTPSrc("https://example.com/tool.zip")
			Expect(o.IsHTTP()).To(BeTrue())
			o = v1.NewEmptySrc()
			Expect(o.IsEmpty()).To(BeTrue())
		})
		It("unmarshals each type as expected", func() {
			o := v1.NewEmptySrc()
			_, err := o.CustomUnmarshal("docker://registry.suse.com/some/image:v1.0")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsDocker()).To(BeTrue())
			_, err = o.CustomUnmarshal("channel://utils/terraform")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsChannel()).To(BeTrue())
			Expect(o.Value()).To(Equal("utils/terraform"))
			_, err = o.CustomUnmarshal("dir:///some/absolute/path")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsDir()).To(BeTrue())
			Expect(o.Value()).To(Equal("/some/absolute/path"))
			_, err = o.CustomUnmarshal("file://some/relative/path")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsFile()).To(BeTrue())
			Expect(o.Value()).To(Equal("some/relative/path"))
			_, err = o.CustomUnmarshal("https://releases.example.com/tool_1.1.5_linux_amd64.zip")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsHTTP()).To(BeTrue())

			// Opaque URI
			_, err = o.CustomUnmarshal("docker:some/image")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsDocker()).To(BeTrue())
		})
		It("defaults a bare reference to a channel package", func() {
			o, err := v1.NewSrcFromURI("utils/terraform")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsChannel()).To(BeTrue())
			Expect(o.Value()).To(Equal("utils/terraform"))
		})
		It("appends latest tag to tagless image references", func() {
			o, err := v1.NewSrcFromURI("docker://some/image")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsDocker()).To(BeTrue())
			Expect(o.Value()).To(Equal("some/image:latest"))
		})
		It("detects archive sources from the URL path", func() {
			for _, uri := range []string{
				"https://example.com/tool_1.1.5_linux_amd64.zip",
				"https://example.com/tool.tar.gz",
				"https://example.com/tool.tgz?signed=yes",
			} {
				o, err := v1.NewSrcFromURI(uri)
				Expect(err).ShouldNot(HaveOccurred())
				Expect(o.IsArchive()).To(BeTrue(), uri)
			}
			o, err := v1.NewSrcFromURI("https://example.com/tool_linux_amd64")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(o.IsArchive()).To(BeFalse())
		})
		It("round trips through its string form", func() {
			for _, uri := range []string{
				"dir:///payload/tree",
				"file:///payload/tool",
				"channel://utils/terraform",
				"https://example.com/tool.zip",
			} {
				o, err := v1.NewSrcFromURI(uri)
				Expect(err).ShouldNot(HaveOccurred())
				p, err := v1.NewSrcFromURI(o.String())
				Expect(err).ShouldNot(HaveOccurred())
				Expect(p.String()).To(Equal(o.String()))
			}
		})
		It("marshals and unmarshals as plain YAML strings", func() {
			o, err := v1.NewSrcFromURI("dir:///payload/tree")
			Expect(err).ShouldNot(HaveOccurred())
			d, err := yaml.Marshal(o)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(d)).To(ContainSubstring("dir:///payload/tree"))

			p := v1.NewEmptySrc()
			Expect(yaml.Unmarshal(d, p)).To(Succeed())
			Expect(p.IsDir()).To(BeTrue())
			Expect(p.Value()).To(Equal("/payload/tree"))
		})
		It("fails to unmarshal non string types", func() {
			o := v1.NewEmptySrc()
			_, err := o.CustomUnmarshal(map[string]string{})
			Expect(err).Should(HaveOccurred())
		})
		It("fails to unmarshal invalid image references", func() {
			o := v1.NewEmptySrc()
			_, err := o.CustomUnmarshal("docker://invalid$IMAGE")
			Expect(err).Should(HaveOccurred())
		})
	})
})
