// Copyright 2018 The LUCI Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interpreter

import (
	"errors"
	"io/fs"

	"go.starlark.net/starlark"
)

// FSLoader returns a loader that loads files from fsys. Paths are validated
// by fs.ValidPath, so modules can't escape fsys.
func FSLoader(fsys fs.FS) Loader {
	return func(path string) (_ starlark.StringDict, src string, err error) {
		if !fs.ValidPath(path) {
			return nil, "", ErrNoModule
		}
		switch body, err := fs.ReadFile(fsys, path); {
		case errors.Is(err, fs.ErrNotExist):
			return nil, "", ErrNoModule
		case err != nil:
			return nil, "", err
		default:
			return nil, string(body), nil
		}
	}
}

// MemoryLoader returns a loader that loads files from the given map.
func MemoryLoader(files map[string]string) Loader {
	return func(path string) (_ starlark.StringDict, src string, err error) {
		body, ok := files[path]
		if !ok {
			return nil, "", ErrNoModule
		}
		return nil, body, nil
	}
}

// ModuleLoader returns a loader that serves predefined modules, such as
// ones implemented in Go.
func ModuleLoader(modules map[string]starlark.StringDict) Loader {
	return func(path string) (_ starlark.StringDict, src string, err error) {
		m, ok := modules[path]
		if !ok {
			return nil, "", ErrNoModule
		}
		return m, "", nil
	}
}
