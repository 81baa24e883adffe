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

// Package provisioner implements the conditional install flow for binary
// provisioning tools: detect the installed version, fetch the payload from
// its source when the target version is missing and stage the binary into
// place.
package provisioner

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/docker/go-units"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
	"github.com/rancher-sandbox/testrig/pkg/utils"
)

type Provisioner struct {
	cfg  *v1.Config
	spec *v1.DeployToolSpec
}

// DeployResult describes the outcome of a deploy, the facts recorded after
// a run come from here
type DeployResult struct {
	Changed bool
	Version string
	Path    string
	Source  string
}

func NewProvisioner(cfg *v1.Config, spec *v1.DeployToolSpec) *Provisioner {
	return &Provisioner{cfg: cfg, spec: spec}
}

// InstalledVersion runs the version check command and extracts the version
// string with the first capture group of the check regex. A missing binary
// or output the regex does not match both yield an empty version.
func (p Provisioner) InstalledVersion() (string, error) {
	re, err := regexp.Compile(p.spec.Check.Regex)
	if err != nil {
		return "", fmt.Errorf("invalid version regex '%s': %v", p.spec.Check.Regex, err)
	}

	parts := strings.Fields(p.spec.Check.Command)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty version check command for tool '%s'", p.spec.Name)
	}

	var out []byte
	if p.spec.Sysroot != "" {
		chroot := utils.NewChroot(p.spec.Sysroot, p.cfg)
		out, err = chroot.Run(parts[0], parts[1:]...)
	} else {
		if !p.cfg.Runner.CommandExists(parts[0]) {
			p.cfg.Logger.Debugf("Command '%s' not found, assuming '%s' is not installed", parts[0], p.spec.Name)
			return "", nil
		}
		out, err = p.cfg.Runner.Run(parts[0], parts[1:]...)
	}
	if err != nil {
		p.cfg.Logger.Debugf("Version check for '%s' failed (%s), assuming not installed", p.spec.Name, err.Error())
		return "", nil
	}

	match := re.FindStringSubmatch(string(out))
	if len(match) < 2 {
		p.cfg.Logger.Debugf("Version check output for '%s' did not match '%s'", p.spec.Name, p.spec.Check.Regex)
		return "", nil
	}
	return match[1], nil
}

// NeedsDeploy decides whether the tool has to be fetched and staged. With no
// target version any installed version is accepted.
func (p Provisioner) NeedsDeploy(installed string) bool {
	if p.spec.Force {
		return true
	}
	if installed == "" {
		return true
	}
	return p.spec.Version != "" && installed != p.spec.Version
}

type sourceTemplateData struct {
	Version    string
	OS         string
	Arch       string
	GolangArch string
}

// RenderSource resolves template references in the source URI against the
// target version and platform
func (p Provisioner) RenderSource() (*v1.ToolSource, error) {
	raw := p.spec.Source.String()
	if !strings.Contains(raw, "{{") {
		return p.spec.Source, nil
	}

	tmpl, err := template.New(p.spec.Name).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid source template '%s': %v", raw, err)
	}

	data := sourceTemplateData{Version: p.spec.Version}
	if p.cfg.Platform != nil {
		data.OS = p.cfg.Platform.OS
		data.Arch = p.cfg.Platform.Arch
		data.GolangArch = p.cfg.Platform.GolangArch
	}

	buf := &bytes.Buffer{}
	err = tmpl.Execute(buf, data)
	if err != nil {
		return nil, err
	}
	p.cfg.Logger.Debugf("Source URI rendered to '%s'", buf.String())
	return v1.NewSrcFromURI(buf.String())
}

// Fetch retrieves the tool payload from the given source into workDir
func (p Provisioner) Fetch(src *v1.ToolSource, workDir string) error {
	cfg := p.cfg
	switch {
	case src.IsDocker():
		meta, err := cfg.Luet.Unpack(workDir, src.Value(), cfg.LocalImage)
		if err != nil {
			return err
		}
		cfg.Logger.Infof("Unpacked image %s (%s)", src.Value(), units.HumanSize(float64(meta.Size)))
	case src.IsChannel():
		_, err := cfg.Luet.UnpackFromChannel(workDir, src.Value(), cfg.Repos...)
		if err != nil {
			return err
		}
	case src.IsDir():
		return utils.SyncData(cfg.Logger, src.Value(), workDir)
	case src.IsFile():
		return utils.CopyFile(cfg.Fs, src.Value(), filepath.Join(workDir, filepath.Base(src.Value())))
	case src.IsHTTP():
		if src.IsArchive() {
			return cfg.Getter.GetURL(cfg.Logger, src.Value(), workDir)
		}
		err := cfg.Client.GetURL(cfg.Logger, src.Value(), workDir)
		if err != nil {
			return err
		}
		return p.verifyChecksum(src, workDir)
	default:
		return fmt.Errorf("unknown source type for tool '%s'", p.spec.Name)
	}
	return nil
}

// verifyChecksum compares the sha256 of a plain file download against the
// spec, archives and image payloads carry their own integrity checks
func (p Provisioner) verifyChecksum(src *v1.ToolSource, workDir string) error {
	if p.spec.Checksum == "" {
		return nil
	}

	u, err := url.Parse(src.Value())
	if err != nil {
		return err
	}
	file := filepath.Join(workDir, path.Base(u.Path))

	sum, err := utils.CalcFileChecksum(p.cfg.Fs, file)
	if err != nil {
		return err
	}
	if !strings.EqualFold(sum, p.spec.Checksum) {
		return fmt.Errorf("checksum mismatch for '%s': computed %s, expected %s", file, sum, p.spec.Checksum)
	}
	p.cfg.Logger.Debugf("Checksum of '%s' verified", file)
	return nil
}

// Stage locates the tool binary in the fetched payload and installs it into
// the install dir. A previously installed binary is kept aside with the
// backup suffix the first time it gets replaced.
func (p Provisioner) Stage(payloadDir string) (string, error) {
	binPath, err := p.findBinary(payloadDir)
	if err != nil {
		return "", err
	}

	installDir := filepath.Join(p.spec.Sysroot, p.spec.InstallDir)
	err = utils.MkdirAll(p.cfg.Fs, installDir, constants.DirPerm)
	if err != nil {
		return "", err
	}

	target := filepath.Join(installDir, p.spec.Binary)
	backed, err := utils.Exists(p.cfg.Fs, target+constants.BackupSuffix)
	if err != nil {
		return "", err
	}
	if !backed {
		err = utils.BackupFile(p.cfg.Fs, target, constants.BackupSuffix)
		if err != nil {
			return "", err
		}
	}

	err = utils.CopyFile(p.cfg.Fs, binPath, target)
	if err != nil {
		return "", err
	}
	err = p.cfg.Fs.Chmod(target, constants.BinPerm)
	if err != nil {
		return "", err
	}

	p.cfg.Logger.Infof("Staged '%s' to '%s'", p.spec.Binary, target)
	return target, nil
}

// Deploy runs the whole conditional install flow and reports what happened
func (p Provisioner) Deploy() (*DeployResult, error) {
	installed, err := p.InstalledVersion()
	if err != nil {
		return nil, err
	}

	target := filepath.Join(p.spec.Sysroot, p.spec.InstallDir, p.spec.Binary)
	if !p.NeedsDeploy(installed) {
		p.cfg.Logger.Infof("Tool '%s' already at version %s, nothing to do", p.spec.Name, installed)
		return &DeployResult{Version: installed, Path: target, Source: p.spec.Source.String()}, nil
	}
	if installed != "" {
		p.cfg.Logger.Infof("Tool '%s' version %s does not match %s, deploying", p.spec.Name, installed, p.spec.Version)
	}

	src, err := p.RenderSource()
	if err != nil {
		return nil, err
	}

	workDir, err := utils.TempDir(p.cfg.Fs, "", "testrig")
	if err != nil {
		return nil, err
	}
	defer p.cfg.Fs.RemoveAll(workDir) // nolint:errcheck

	err = p.Fetch(src, workDir)
	if err != nil {
		return nil, err
	}

	path, err := p.Stage(workDir)
	if err != nil {
		return nil, err
	}

	version, err := p.InstalledVersion()
	if err != nil || version == "" {
		version = p.spec.Version
	}

	return &DeployResult{Changed: true, Version: version, Path: path, Source: src.String()}, nil
}

// findBinary walks the payload looking for a file matching the binary name,
// release archives nest their content in versioned folders
func (p Provisioner) findBinary(dir string) (string, error) {
	var found string

	var walk func(string) error
	walk = func(current string) error {
		if found != "" {
			return nil
		}
		entries, err := p.cfg.Fs.ReadDir(current)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			full := filepath.Join(current, entry.Name())
			if entry.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			if entry.Name() == p.spec.Binary {
				found = full
				return nil
			}
		}
		return nil
	}

	err := walk(dir)
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("binary '%s' not found in fetched payload", p.spec.Binary)
	}
	return found, nil
}
