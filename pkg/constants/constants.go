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

package constants

import (
	"os"
	"time"
)

const (
	ConfigDir         = "/etc/testrig"
	ConfigExtraDirs   = "/etc/testrig/config.d"
	ConfigFile        = "config.yaml"
	FixtureFile       = "/etc/testrig/services.yaml"
	StateDir          = "/var/lib/testrig"
	StateFile         = "state.yaml"
	DefaultInstallDir = "/usr/local/bin"
	BackupSuffix      = ".orig"
	MountBinary       = "/usr/bin/mount"
	OSReleasePath     = "/etc/os-release"

	ZypperBinary    = "zypper"
	ZypperReposDir  = "/etc/zypp/repos.d"
	RepoFileSuffix  = ".repo"
	DefaultPriority = 99

	LuetDefaultRepoPrio = 90

	// Version detection defaults, the regex first capture group is the version
	DefaultVersionArg   = "--version"
	DefaultVersionRegex = `v?([0-9]+\.[0-9]+(?:\.[0-9]+)?)`

	HTTPTimeout = 60

	// Container fixture defaults, matching the engine's own healthcheck defaults
	ContainerPrefix      = "testrig-"
	HealthcheckInterval  = 30 * time.Second
	HealthcheckTimeout   = 30 * time.Second
	HealthcheckRetries   = 3
	ContainerStopTimeout = 10 * time.Second
	HealthStarting       = "starting"
	HealthHealthy        = "healthy"
	HealthUnhealthy      = "unhealthy"
	HealthNone           = "none"

	// Yip stages evaluated around deploy-tool and init actions
	SetupStage       = "setup"
	BeforeDeployHook = "before-deploy"
	AfterDeployHook  = "after-deploy"
	AfterServiceHook = "after-service"

	// Kernel cmdline stanza pointing to an extra cloud-init document
	SetupCmdlineKey = "testrig.setup"

	// Default directory and file fileModes
	DirPerm        = os.ModeDir | os.ModePerm
	FilePerm       = 0666
	BinPerm        = 0755
	NoWriteDirPerm = 0555 | os.ModeDir
	TempDirPerm    = os.ModePerm | os.ModeSticky | os.ModeDir

	ArchAmd64 = "amd64"
	Archx86   = "x86_64"
	ArchArm64 = "arm64"

	Fedora = "fedora"
	Ubuntu = "ubuntu"
	Suse   = "suse"
)

func GetCloudInitPaths() []string {
	return []string{ConfigExtraDirs, "/oem/", "/usr/local/cloud-config/"}
}

// GetRunKeyEnvMap returns environment variable bindings to RunConfig data
func GetRunKeyEnvMap() map[string]string {
	return map[string]string{
		"strict":     "STRICT",
		"state-path": "STATE_PATH",
	}
}

// GetDeployToolKeyEnvMap returns environment variable bindings to DeployToolSpec data
func GetDeployToolKeyEnvMap() map[string]string {
	return map[string]string{
		"version":     "TOOL_VERSION",
		"source":      "TOOL_SOURCE",
		"binary":      "TOOL_BINARY",
		"install-dir": "TOOL_INSTALL_DIR",
		"checksum":    "TOOL_CHECKSUM",
		"force":       "TOOL_FORCE",
	}
}

// GetServiceKeyEnvMap returns environment variable bindings to ServiceSpec data
func GetServiceKeyEnvMap() map[string]string {
	return map[string]string{
		"file":    "SERVICE_FILE",
		"timeout": "SERVICE_TIMEOUT",
	}
}

// GetVerifyKeyEnvMap returns environment variable bindings to VerifySpec data
func GetVerifyKeyEnvMap() map[string]string {
	return map[string]string{
		"checks": "CHECKS",
	}
}
