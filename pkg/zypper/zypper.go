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

package zypper

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"

	"github.com/rancher-sandbox/testrig/pkg/constants"
	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// Zypper drives the host package repository configuration through the zypper
// command line tool. All mutations are issued non interactively, state is
// read back from zypper's XML output.
type Zypper struct {
	log    v1.Logger
	runner v1.Runner
	fs     v1.FS
	root   string
}

type Options func(z *Zypper) error

// WithRoot operates against an alternate root, used to prepare chroots and
// unpacked sysroots
func WithRoot(root string) func(z *Zypper) error {
	return func(z *Zypper) error {
		z.root = root
		return nil
	}
}

func NewZypper(log v1.Logger, runner v1.Runner, fs v1.FS, opts ...Options) *Zypper {
	z := &Zypper{log: log, runner: runner, fs: fs}
	for _, o := range opts {
		if err := o(z); err != nil {
			log.Errorf("error applying zypper option: %s", err.Error())
			return nil
		}
	}
	return z
}

// repoList maps the document returned by 'zypper --xmlout lr'
type repoList struct {
	XMLName xml.Name  `xml:"stream"`
	Repos   []repoXML `xml:"repo-list>repo"`
}

type repoXML struct {
	Alias       string `xml:"alias,attr"`
	Name        string `xml:"name,attr"`
	Priority    string `xml:"priority,attr"`
	Enabled     string `xml:"enabled,attr"`
	AutoRefresh string `xml:"autorefresh,attr"`
	GPGCheck    string `xml:"gpgcheck,attr"`
	URL         string `xml:"url"`
}

func (r repoXML) toRepository() v1.Repository {
	priority := constants.DefaultPriority
	if p, err := strconv.Atoi(r.Priority); err == nil && p > 0 {
		priority = p
	}
	return v1.Repository{
		Alias:    r.Alias,
		Name:     r.Name,
		URI:      r.URL,
		Priority: priority,
		Disabled: r.Enabled != "1",
		Refresh:  r.AutoRefresh == "1",
		GPGCheck: r.GPGCheck == "1",
	}
}

func (z Zypper) globalArgs(extra ...string) []string {
	args := []string{}
	if z.root != "" {
		args = append(args, "--root", z.root)
	}
	args = append(args, "--non-interactive")
	return append(args, extra...)
}

// List returns the currently configured repositories
func (z Zypper) List() ([]v1.Repository, error) {
	args := []string{}
	if z.root != "" {
		args = append(args, "--root", z.root)
	}
	args = append(args, "--xmlout", "--non-interactive", "lr")

	out, err := z.runner.Run(constants.ZypperBinary, args...)
	if err != nil {
		// exit code 6 means no repositories are defined yet
		if zypperExitCode(err) == 6 {
			return []v1.Repository{}, nil
		}
		z.log.Errorf("failed listing repositories: %s", string(out))
		return nil, err
	}

	list := &repoList{}
	err = xml.Unmarshal(out, list)
	if err != nil {
		z.log.Errorf("failed decoding repository list: %s", err.Error())
		return nil, err
	}

	repos := make([]v1.Repository, 0, len(list.Repos))
	for _, r := range list.Repos {
		repos = append(repos, r.toRepository())
	}
	return repos, nil
}

// Add registers the given repository
func (z Zypper) Add(repo v1.Repository) error {
	args := z.globalArgs("ar", "--priority", strconv.Itoa(repo.Priority))
	if repo.Name != "" {
		args = append(args, "--name", repo.Name)
	}
	if repo.Refresh {
		args = append(args, "--refresh")
	} else {
		args = append(args, "--no-refresh")
	}
	if repo.GPGCheck {
		args = append(args, "--gpgcheck")
	} else {
		args = append(args, "--no-gpgcheck")
	}
	if repo.Disabled {
		args = append(args, "--disable")
	}
	args = append(args, repo.URI, repo.Alias)

	z.log.Infof("Adding repository '%s' (%s)", repo.Alias, repo.URI)
	out, err := z.runner.Run(constants.ZypperBinary, args...)
	if err != nil {
		z.log.Errorf("failed adding repository '%s': %s", repo.Alias, string(out))
		return err
	}
	return nil
}

// Remove drops a repository by alias, name, number or URI, zypper resolves
// any of those forms
func (z Zypper) Remove(target string) error {
	z.log.Infof("Removing repository '%s'", target)
	out, err := z.runner.Run(constants.ZypperBinary, z.globalArgs("rr", target)...)
	if err != nil {
		z.log.Errorf("failed removing repository '%s': %s", target, string(out))
		return err
	}
	return nil
}

// Modify changes properties of an existing repository in place. The URI is
// not modifiable in zypper, callers needing an URI change remove and re-add.
func (z Zypper) Modify(repo v1.Repository) error {
	args := z.globalArgs("mr", "--priority", strconv.Itoa(repo.Priority))
	if repo.Name != "" {
		args = append(args, "--name", repo.Name)
	}
	if repo.Refresh {
		args = append(args, "--refresh")
	} else {
		args = append(args, "--no-refresh")
	}
	if repo.GPGCheck {
		args = append(args, "--gpgcheck")
	} else {
		args = append(args, "--no-gpgcheck")
	}
	if repo.Disabled {
		args = append(args, "--disable")
	} else {
		args = append(args, "--enable")
	}
	args = append(args, repo.Alias)

	z.log.Infof("Modifying repository '%s'", repo.Alias)
	out, err := z.runner.Run(constants.ZypperBinary, args...)
	if err != nil {
		z.log.Errorf("failed modifying repository '%s': %s", repo.Alias, string(out))
		return err
	}
	return nil
}

// Refresh refreshes the given repositories, all of them when no alias is
// given
func (z Zypper) Refresh(force bool, autoImportKeys bool, aliases ...string) error {
	args := []string{}
	if z.root != "" {
		args = append(args, "--root", z.root)
	}
	args = append(args, "--non-interactive")
	if autoImportKeys {
		args = append(args, "--gpg-auto-import-keys")
	}
	args = append(args, "ref")
	if force {
		args = append(args, "--force")
	}
	args = append(args, aliases...)

	z.log.Infof("Refreshing repositories %v", aliases)
	out, err := z.runner.Run(constants.ZypperBinary, args...)
	if err != nil {
		z.log.Errorf("failed refreshing repositories: %s", string(out))
		return err
	}
	return nil
}

// Ensure reconciles the given repository definition against the current
// configuration and reports whether anything was changed. Re-applying an
// identical definition is a no-op.
func (z Zypper) Ensure(repo v1.Repository) (changed bool, err error) {
	repos, err := z.List()
	if err != nil {
		return false, err
	}

	current := findByAlias(repos, repo.Alias)
	if current == nil {
		return true, z.Add(repo)
	}

	if current.URI != repo.URI {
		// zypper cannot modify an URI in place
		z.log.Debugf("Repository '%s' URI changed from '%s' to '%s'", repo.Alias, current.URI, repo.URI)
		err = z.Remove(repo.Alias)
		if err != nil {
			return false, err
		}
		return true, z.Add(repo)
	}

	if repoDrifted(*current, repo) {
		return true, z.Modify(repo)
	}

	z.log.Debugf("Repository '%s' already configured as requested", repo.Alias)
	return false, nil
}

// EnsureAbsent removes a repository matched by alias or URI and reports
// whether anything was actually removed
func (z Zypper) EnsureAbsent(target string) (changed bool, err error) {
	repos, err := z.List()
	if err != nil {
		return false, err
	}

	for _, r := range repos {
		if r.Alias == target || r.URI == target {
			return true, z.Remove(r.Alias)
		}
	}

	z.log.Debugf("No repository matching '%s', nothing to remove", target)
	return false, nil
}

// RepoFilePath returns the repo file zypper keeps for the given alias
func (z Zypper) RepoFilePath(alias string) string {
	return filepath.Join(z.root, constants.ZypperReposDir, alias+constants.RepoFileSuffix)
}

// ParseRepoFile reads a zypper repo file and returns the repository it
// defines, used for file level assertions on the repos.d directory
func ParseRepoFile(fs v1.FS, path string) (*v1.Repository, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file, err := ini.Load(data)
	if err != nil {
		return nil, err
	}

	sections := file.Sections()
	var section *ini.Section
	for _, s := range sections {
		if s.Name() != ini.DefaultSection {
			section = s
			break
		}
	}
	if section == nil {
		return nil, fmt.Errorf("no repository section in '%s'", path)
	}

	repo := &v1.Repository{
		Alias:    section.Name(),
		Name:     section.Key("name").String(),
		URI:      section.Key("baseurl").String(),
		Disabled: section.Key("enabled").String() == "0",
		Refresh:  section.Key("autorefresh").String() == "1",
		GPGCheck: section.Key("gpgcheck").String() == "1",
		Priority: constants.DefaultPriority,
	}
	if p, err := section.Key("priority").Int(); err == nil && p > 0 {
		repo.Priority = p
	}
	return repo, nil
}

func findByAlias(repos []v1.Repository, alias string) *v1.Repository {
	for i := range repos {
		if repos[i].Alias == alias {
			return &repos[i]
		}
	}
	return nil
}

// repoDrifted compares the properties zypper can modify in place, the name
// only participates when the desired definition sets one
func repoDrifted(current, desired v1.Repository) bool {
	if desired.Name != "" && current.Name != desired.Name {
		return true
	}
	return current.Disabled != desired.Disabled ||
		current.Refresh != desired.Refresh ||
		current.GPGCheck != desired.GPGCheck ||
		current.Priority != desired.Priority
}

// zypperExitCode digs the exit status out of a runner error, -1 when it is
// not an exit error
func zypperExitCode(err error) int {
	type exitCoder interface {
		ExitCode() int
	}
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	return -1
}
