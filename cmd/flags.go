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

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// addStrictFlag adds the flag that turns hook and check failures fatal
func addStrictFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("strict", false, "Fail on hook errors and allowed check failures")
}

// addRootFlag adds the alternate system root flag used by zypper commands
func addRootFlag(cmd *cobra.Command) {
	cmd.Flags().String("root", "", "Operate on an alternate system root")
}

// addRepoFlags adds the flags describing a single repository
func addRepoFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Descriptive repository name")
	cmd.Flags().Int("priority", 0, "Repository priority, lower numbers win")
	cmd.Flags().Bool("refresh", false, "Enable autorefresh for the repository")
	cmd.Flags().Bool("disable", false, "Add the repository in disabled state")
	cmd.Flags().Bool("gpgcheck", false, "Enable GPG checks for the repository")
}

// addLocalImageFlag add local image flag shared between pull-image and deploy-tool
func addLocalImageFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("local", false, "Use an image from local cache")
}

// addPlatformFlags adds the platform flag for image related commands
func addPlatformFlags(cmd *cobra.Command) {
	cmd.Flags().String("platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), "Platform to pull the image for")
}

// addFixtureFlags adds the flags selecting a service fixture entry
func addFixtureFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Fixture file with the service definitions")
	cmd.Flags().String("service", "", "Service name, can be omitted for single service fixtures")
}
