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

package utils

import (
	"io"
	"os"
	"path/filepath"

	v1 "github.com/rancher-sandbox/testrig/pkg/types/v1"
)

// CopyFile copies source file to target file using the FS interface
func CopyFile(fs v1.FS, source string, target string) (err error) {
	sourceFile, err := fs.Open(source)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := sourceFile.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	targetFile, err := fs.Create(target)
	if err != nil {
		return err
	}
	defer func() {
		if ferr := targetFile.Close(); ferr != nil && err == nil {
			err = ferr
		}
	}()

	_, err = io.Copy(targetFile, sourceFile)
	return err
}

// BackupFile moves the given file aside appending the backup suffix, it is a
// no-op if the file does not exist
func BackupFile(fs v1.FS, path string, suffix string) error {
	ok, err := Exists(fs, path)
	if err != nil || !ok {
		return err
	}
	return fs.Rename(path, path+suffix)
}

// WriteFileAtomic writes the data to a sibling temp file first and renames it
// over the target, so readers never observe a partial file
func WriteFileAtomic(fs v1.FS, path string, data []byte, perm os.FileMode) error {
	tmp, err := TempFile(fs, filepath.Dir(path), "."+filepath.Base(path))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer fs.Remove(tmpName)

	_, err = tmp.Write(data)
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if err = fs.Chmod(tmpName, perm); err != nil {
		return err
	}
	return fs.Rename(tmpName, path)
}
