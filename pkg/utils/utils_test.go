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

package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/twpayne/go-vfs"
	"github.com/twpayne/go-vfs/vfst"

	conf "github.com/rancher-sandbox/testrig/pkg/config"
	"github.com/rancher-sandbox/testrig/pkg/constants"
	"github.com/rancher-sandbox/testrig/pkg/mocks"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

func TestUtilsSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Utils test suite")
}

var _ = Describe("Utils", Label("utils"), func() {
	var config *v1.Config
	var runner *mocks.FakeRunner
	var logger v1.Logger
	var syscall *mocks.FakeSyscall
	var mounter *mocks.FakeMounter
	var fs *vfst.TestFS
	var cleanup func()

	BeforeEach(func() {
		runner = mocks.NewFakeRunner()
		syscall = &mocks.FakeSyscall{}
		mounter = mocks.NewFakeMounter()
		logger = v1.NewNullLogger()
		fs, cleanup, _ = vfst.NewTestFS(nil)
		config = conf.NewConfig(
			conf.WithFs(fs),
			conf.WithRunner(runner),
			conf.WithLogger(logger),
			conf.WithMounter(mounter),
			conf.WithSyscall(syscall),
		)
	})
	AfterEach(func() { cleanup() })

	Describe("Exists and IsDir", Label("fs"), func() {
		It("reports existing files and dirs", func() {
			err := utils.MkdirAll(fs, "/some/dir", constants.DirPerm)
			Expect(err).ToNot(HaveOccurred())
			Expect(fs.WriteFile("/some/dir/file", []byte("data"), constants.FilePerm)).To(Succeed())

			Expect(utils.Exists(fs, "/some/dir/file")).To(BeTrue())
			Expect(utils.Exists(fs, "/some/missing")).To(BeFalse())
			Expect(utils.IsDir(fs, "/some/dir")).To(BeTrue())
			Expect(utils.IsDir(fs, "/some/dir/file")).To(BeFalse())
		})
		It("errors checking a dir over a read only filesystem", func() {
			roFS := vfs.NewReadOnlyFS(fs)
			err := utils.MkdirAll(roFS, "/other", constants.DirPerm)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DirSize", Label("fs"), func() {
		It("accumulates the size of all files in a tree", func() {
			Expect(utils.MkdirAll(fs, "/tree/sub", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/tree/f1", make([]byte, 128), constants.FilePerm)).To(Succeed())
			Expect(fs.WriteFile("/tree/sub/f2", make([]byte, 384), constants.FilePerm)).To(Succeed())

			size, err := utils.DirSize(fs, "/tree")
			Expect(err).ToNot(HaveOccurred())
			Expect(size).To(Equal(int64(512)))
		})
	})

	Describe("TempDir and TempFile", Label("fs"), func() {
		It("creates a predictable temp dir on a test filesystem", func() {
			dir, err := utils.TempDir(fs, "", "testrig")
			Expect(err).ToNot(HaveOccurred())
			Expect(dir).To(Equal(filepath.Join(os.TempDir(), "testrig")))
			Expect(utils.IsDir(fs, dir)).To(BeTrue())
		})
		It("creates a temp file under the given dir", func() {
			Expect(utils.MkdirAll(fs, "/tmpdata", constants.DirPerm)).To(Succeed())
			f, err := utils.TempFile(fs, "/tmpdata", "unit-*.yaml")
			Expect(err).ToNot(HaveOccurred())
			defer f.Close()
			Expect(filepath.Dir(f.Name())).To(Equal("/tmpdata"))
		})
	})

	Describe("CopyFile and BackupFile", Label("files"), func() {
		It("copies file contents", func() {
			Expect(utils.MkdirAll(fs, "/files", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/files/src", []byte("payload"), constants.FilePerm)).To(Succeed())

			Expect(utils.CopyFile(fs, "/files/src", "/files/dst")).To(Succeed())
			data, err := fs.ReadFile("/files/dst")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("payload"))
		})
		It("fails copying a missing source", func() {
			Expect(utils.CopyFile(fs, "/files/missing", "/files/dst")).NotTo(Succeed())
		})
		It("moves the file aside on backup", func() {
			Expect(utils.MkdirAll(fs, "/files", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/files/repo.conf", []byte("old"), constants.FilePerm)).To(Succeed())

			Expect(utils.BackupFile(fs, "/files/repo.conf", ".bak")).To(Succeed())
			Expect(utils.Exists(fs, "/files/repo.conf")).To(BeFalse())
			Expect(utils.Exists(fs, "/files/repo.conf.bak")).To(BeTrue())
		})
		It("is a no-op backing up a missing file", func() {
			Expect(utils.BackupFile(fs, "/files/none", ".bak")).To(Succeed())
		})
	})

	Describe("WriteFileAtomic", Label("files"), func() {
		It("replaces the target in a single rename", func() {
			Expect(utils.MkdirAll(fs, "/state", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/state/data", []byte("old"), constants.FilePerm)).To(Succeed())

			Expect(utils.WriteFileAtomic(fs, "/state/data", []byte("new"), constants.FilePerm)).To(Succeed())
			data, err := fs.ReadFile("/state/data")
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(Equal("new"))

			entries, err := fs.ReadDir("/state")
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})
	})

	Describe("CalcFileChecksum", Label("files"), func() {
		It("returns the sha256 of the file contents", func() {
			Expect(utils.MkdirAll(fs, "/files", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/files/data", []byte("checksum me"), constants.FilePerm)).To(Succeed())

			sum, err := utils.CalcFileChecksum(fs, "/files/data")
			Expect(err).ToNot(HaveOccurred())
			Expect(sum).To(HaveLen(64))

			again, err := utils.CalcFileChecksum(fs, "/files/data")
			Expect(err).ToNot(HaveOccurred())
			Expect(again).To(Equal(sum))
		})
		It("fails on a missing file", func() {
			_, err := utils.CalcFileChecksum(fs, "/files/none")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("os-release helpers", Label("files"), func() {
		It("parses os-release from the given root", func() {
			Expect(utils.MkdirAll(fs, "/etc", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile(
				"/etc/os-release",
				[]byte("ID=\"opensuse-leap\"\nNAME=\"openSUSE Leap\"\n"),
				constants.FilePerm,
			)).To(Succeed())

			release, err := utils.GetOSRelease(fs, "/")
			Expect(err).ToNot(HaveOccurred())
			Expect(release["ID"]).To(Equal("opensuse-leap"))
			Expect(utils.GetHostDistro(fs)).To(Equal("opensuse-leap"))
		})
		It("returns an empty distro when os-release is missing", func() {
			Expect(utils.GetHostDistro(fs)).To(Equal(""))
		})
	})

	Describe("IsHTTPURI", Label("uri"), func() {
		It("accepts http and https schemes only", func() {
			Expect(utils.IsHTTPURI("https://releases.hashicorp.com/terraform")).To(BeTrue())
			Expect(utils.IsHTTPURI("http://mirror.example.com/repo")).To(BeTrue())
			Expect(utils.IsHTTPURI("/usr/local/bin/terraform")).To(BeFalse())
			Expect(utils.IsHTTPURI("oci://quay.io/some/image")).To(BeFalse())
		})
	})

	Describe("ValidContainerReference", Label("uri"), func() {
		It("validates fully qualified references", func() {
			Expect(utils.ValidContainerReference("quay.io/keycloak/keycloak:latest")).To(BeTrue())
			Expect(utils.ValidContainerReference("registry.suse.com/suse/sle15:15.4")).To(BeTrue())
			Expect(utils.ValidContainerReference("!nv@lid reference")).To(BeFalse())
		})
	})

	Describe("CleanStack", Label("cleanstack"), func() {
		var cleaner *utils.CleanStack
		BeforeEach(func() {
			cleaner = utils.NewCleanStack()
		})
		It("runs jobs in reverse order and keeps the first error", func() {
			order := []int{}
			cleaner.Push(func() error { order = append(order, 1); return nil })
			cleaner.Push(func() error { order = append(order, 2); return nil })
			Expect(cleaner.Cleanup(nil)).To(BeNil())
			Expect(order).To(Equal([]int{2, 1}))
		})
		It("runs error only jobs just on failure", func() {
			ran := false
			cleaner.PushErrorOnly(func() error { ran = true; return nil })
			Expect(cleaner.Cleanup(nil)).To(BeNil())
			Expect(ran).To(BeFalse())
			cleaner.PushErrorOnly(func() error { ran = true; return nil })
			Expect(cleaner.Cleanup(errors.New("failed provisioning"))).To(HaveOccurred())
			Expect(ran).To(BeTrue())
		})
		It("runs success only jobs just on success", func() {
			ran := false
			cleaner.PushSuccessOnly(func() error { ran = true; return nil })
			Expect(cleaner.Cleanup(errors.New("failed provisioning"))).To(HaveOccurred())
			Expect(ran).To(BeFalse())
			cleaner.PushSuccessOnly(func() error { ran = true; return nil })
			Expect(cleaner.Cleanup(nil)).To(BeNil())
			Expect(ran).To(BeTrue())
		})
	})

	Describe("Chroot", Label("chroot"), func() {
		var chroot *utils.Chroot
		BeforeEach(func() {
			chroot = utils.NewChroot("/whatever", config)
		})
		It("runs a command in the chroot environment", func() {
			_, err := chroot.Run("chroot-command")
			Expect(err).ToNot(HaveOccurred())
			Expect(syscall.WasChrootCalledWith("/whatever")).To(BeTrue())
		})
		It("runs a callback in the chroot environment", func() {
			called := false
			err := chroot.RunCallback(func() error {
				called = true
				return nil
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(called).To(BeTrue())
			Expect(syscall.WasChrootCalledWith("/whatever")).To(BeTrue())
		})
		It("fails when chroot syscall errors out", func() {
			syscall.ErrorOnChroot = true
			_, err := chroot.Run("chroot-command")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("chroot error"))
		})
		It("fails preparing the environment when mounts error out", func() {
			mounter.ErrorOnMount = true
			_, err := chroot.Run("chroot-command")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("mount error"))
		})
		It("reports unmount failures on close", func() {
			Expect(chroot.Prepare()).To(Succeed())
			mounter.ErrorOnUnmount = true
			err := chroot.Close()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed closing chroot"))
		})
		It("honours extra bind mounts", func() {
			chroot.SetExtraMounts(map[string]string{"/host/data": "/data"})
			Expect(chroot.Prepare()).To(Succeed())
			defer chroot.Close()
			lst, _ := mounter.List()
			found := false
			for _, mnt := range lst {
				if mnt.Path == "/whatever/data" {
					found = true
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("ProvisionState", Label("state"), func() {
		It("loads an empty state when the file is missing", func() {
			state, err := utils.LoadProvisionState(fs, "/var/lib/testrig/state.yaml")
			Expect(err).ToNot(HaveOccurred())
			Expect(state.Facts).To(BeEmpty())
		})
		It("round trips facts through the state file", func() {
			state := v1.NewProvisionState()
			state.SetFact("tool.terraform.version", "0.12.24")

			err := utils.WriteProvisionState(fs, "/var/lib/testrig/state.yaml", state)
			Expect(err).ToNot(HaveOccurred())

			loaded, err := utils.LoadProvisionState(fs, "/var/lib/testrig/state.yaml")
			Expect(err).ToNot(HaveOccurred())
			Expect(loaded.Facts["tool.terraform.version"]).To(Equal("0.12.24"))
			Expect(loaded.Date).ToNot(BeEmpty())
		})
		It("fails loading a corrupt state file", func() {
			Expect(utils.MkdirAll(fs, "/var/lib/testrig", constants.DirPerm)).To(Succeed())
			Expect(fs.WriteFile("/var/lib/testrig/state.yaml", []byte("\tnot yaml"), constants.FilePerm)).To(Succeed())
			_, err := utils.LoadProvisionState(fs, "/var/lib/testrig/state.yaml")
			Expect(err).To(HaveOccurred())
		})
	})
})
