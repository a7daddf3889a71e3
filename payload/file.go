// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package payload

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrConsumed is returned when the contents of an [InputFile] are requested
// more than once.
var ErrConsumed = errors.New("payload: data source already consumed")

// InputFile is a file to be uploaded. Its contents can be read only once:
// after the first call to Open all subsequent calls fail with [ErrConsumed].
type InputFile struct {
	// Filename is the name sent to the Bot API. If empty, a name is guessed
	// from the payload key that references the file.
	Filename string

	open     func() (io.ReadCloser, error)
	consumed atomic.Bool
}

// FromBytes returns an InputFile that uploads b.
func FromBytes(b []byte, filename string) *InputFile {
	return &InputFile{
		Filename: filename,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

// FromReader returns an InputFile that streams r. If r is an [io.Closer], it
// is closed after the upload.
func FromReader(r io.Reader, filename string) *InputFile {
	return &InputFile{
		Filename: filename,
		open: func() (io.ReadCloser, error) {
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
	}
}

// FromPath returns an InputFile that streams the file at path. The file is
// opened only when the upload starts.
func FromPath(path string) *InputFile {
	return &InputFile{
		Filename: filepath.Base(path),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// Open returns the contents of the file. It must be called at most once.
func (f *InputFile) Open() (io.ReadCloser, error) {
	if !f.consumed.CompareAndSwap(false, true) {
		return nil, ErrConsumed
	}
	return f.open()
}

// Consumed reports whether Open has been called.
func (f *InputFile) Consumed() bool { return f.consumed.Load() }

func (f *InputFile) String() string {
	if f.Filename != "" {
		return "InputFile(" + f.Filename + ")"
	}
	return "InputFile"
}
