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

// provides a custom error interface and exit codes to use on the testrig cli
package error

// Provided exit codes for testrig
//
// To make it easy to generate them you have to respect the structure:
//
// comment that explains the error
// const NamedConstant = ERRORCODE
//
// This way the exit code documentation can be generated into a Markdown
// list of EXITCODE -> COMMENT

// Error closing a file
const CloseFile = 10

// Error running a command
const CommandRun = 11

// Error copying data
const CopyData = 12

// Error copying a file
const CopyFile = 13

// Error creating a dir
const CreateDir = 14

// Error creating a file
const CreateFile = 15

// Error creating a temporal dir
const CreateTempDir = 16

// Error trying to identify the tool source
const IdentifySource = 17

// Error opening a file
const OpenFile = 18

// Error reading the run config
const ReadingRunConfig = 19

// Error reading the deploy-tool spec
const ReadingToolSpec = 20

// Error running stat on a file
const StatFile = 21

// Error downloading a file
const DownloadFile = 22

// Downloaded file checksum mismatch
const ChecksumMismatch = 23

// Error unpacking a tool payload
const UnpackPayload = 24

// Error staging a binary into the install dir
const StageBinary = 25

// Error detecting the installed tool version
const DetectVersion = 26

// Error adding a package repository
const AddRepo = 27

// Error removing a package repository
const RemoveRepo = 28

// Error modifying a package repository
const ModifyRepo = 29

// Error refreshing package repositories
const RefreshRepos = 30

// Error listing package repositories
const ListRepos = 31

// Error reading the service fixture
const ReadingFixture = 32

// Error pulling a container image
const PullImage = 33

// Error creating the service container
const CreateContainer = 34

// Error starting the service container
const StartContainer = 35

// Error stopping the service container
const StopContainer = 36

// Service container never reported a healthy state
const ServiceUnhealthy = 37

// One or more verification checks failed
const VerifyFailed = 38

// Error reading the verification checks
const ReadingChecks = 39

// Error running a cloud-init stage
const CloudInitRunStage = 40

// Error rendering a cloud-init template
const CloudInitRender = 41

// Error writing the provision state file
const WriteState = 42

// Error installing a provisioning profile
const InstallProfile = 43

// Error mounting a path in a chroot environment
const MountChroot = 44

// Error unpacking an image
const UnpackImage = 45

// Command requires root privileges
const RequiresRoot = 46

// Unknown error
const Unknown int = 255
