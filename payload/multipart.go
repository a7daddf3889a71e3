// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/aidarkhanov/nanoid"
)

// ErrFilename is returned when a file name contains a carriage return or a
// newline character, which would break the multipart headers.
var ErrFilename = errors.New("payload: file names cannot contain carriage-return or newline characters")

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomString returns 32 random base-36 characters. Replaced in tests.
var randomString = func() (string, error) {
	return nanoid.Generate(alphabet, 32)
}

// ExtractedFile is a file that was pulled out of a payload and replaced with
// an attach://<ID> placeholder.
type ExtractedFile struct {
	// ID is the name of the multipart part that holds the file.
	ID string
	// Origin is the payload key the file was found under, or the media type
	// for values of "media" keys inside typed objects.
	Origin string
	File   *InputFile
}

// Filename returns the name sent for the file: either its own name, or one
// guessed from Origin.
func (f ExtractedFile) Filename() string {
	if f.File.Filename != "" {
		return f.File.Filename
	}
	return f.Origin + "." + extension(f.Origin)
}

func extension(origin string) string {
	switch origin {
	case "certificate":
		return "pem"
	case "photo", "thumbnail":
		return "jpg"
	case "voice":
		return "ogg"
	case "audio":
		return "mp3"
	case "animation", "video", "video_note":
		return "mp4"
	case "sticker":
		return "webp"
	default:
		return "dat"
	}
}

// FormData returns a request that sends v as multipart/form-data.
//
// The body is produced lazily while the HTTP transport reads it. Errors that
// happen while reading files are returned from Read and also passed to
// onStreamError, since by then FormData has long returned.
func FormData(v any, onStreamError func(error)) (*Request, error) {
	obj, err := toObject(v)
	if err != nil {
		return nil, err
	}

	rnd, err := randomString()
	if err != nil {
		return nil, fmt.Errorf("payload: generating boundary: %w", err)
	}
	boundary := "----------" + rnd

	x := &extractor{}
	if err := x.object(obj); err != nil {
		return nil, err
	}
	for _, f := range x.files {
		if name := f.Filename(); strings.ContainsAny(name, "\r\n") {
			return nil, fmt.Errorf("%w: filename for property %q was %q", ErrFilename, f.Origin, name)
		}
	}

	b := &multipartBody{}
	var parts []io.Reader
	parts = append(parts, strings.NewReader("--"+boundary+"\r\n"))
	separator := "\r\n--" + boundary + "\r\n"
	first := true
	for _, m := range obj {
		if m.val == nil {
			continue
		}
		value, err := fieldValue(m.val)
		if err != nil {
			return nil, fmt.Errorf("payload: encoding field %q: %w", m.key, err)
		}
		if !first {
			parts = append(parts, strings.NewReader(separator))
		}
		first = false
		parts = append(parts, strings.NewReader(`content-disposition: form-data; name="`+m.key+"\"\r\n\r\n"+value))
	}
	for _, f := range x.files {
		if !first {
			parts = append(parts, strings.NewReader(separator))
		}
		first = false
		parts = append(parts, strings.NewReader(
			`content-disposition: form-data; name="`+f.ID+`"; filename=`+f.Filename()+"\r\n"+
				"content-type: application/octet-stream\r\n\r\n",
		))
		fr := &fileReader{file: f, onErr: onStreamError}
		b.files = append(b.files, fr)
		parts = append(parts, fr)
	}
	parts = append(parts, strings.NewReader("\r\n--"+boundary+"--\r\n"))
	b.r = io.MultiReader(parts...)

	return &Request{
		Method: http.MethodPost,
		Header: http.Header{
			"Content-Type": {"multipart/form-data; boundary=" + boundary},
			"Connection":   {"keep-alive"},
		},
		Body: b,
	}, nil
}

// fieldValue formats a top-level payload value as the body of a form field.
func fieldValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case object, []any:
		var buf bytes.Buffer
		if err := encode(&buf, v); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	// Values that marshal to JSON strings are sent unquoted, like plain
	// strings.
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			return s, nil
		}
	}
	return string(b), nil
}

// extractor replaces files in a normalized payload with attach://<id>
// placeholders and collects them in traversal order.
type extractor struct {
	files []ExtractedFile
}

func (x *extractor) object(obj object) error {
	for i, m := range obj {
		v, err := x.value(m.val, m.key, obj)
		if err != nil {
			return err
		}
		obj[i].val = v
	}
	return nil
}

// value processes v found under key in parent. Elements of arrays are
// attributed to the key of the array.
func (x *extractor) value(v any, key string, parent object) (any, error) {
	switch v := v.(type) {
	case *InputFile:
		id, err := randomString()
		if err != nil {
			return nil, fmt.Errorf("payload: generating attachment id: %w", err)
		}
		x.files = append(x.files, ExtractedFile{ID: id, Origin: origin(key, parent), File: v})
		return "attach://" + id, nil
	case object:
		return v, x.object(v)
	case []any:
		for i, el := range v {
			nv, err := x.value(el, key, parent)
			if err != nil {
				return nil, err
			}
			v[i] = nv
		}
		return v, nil
	}
	return v, nil
}

func origin(key string, parent object) string {
	if key != "media" {
		return key
	}
	t, ok := parent.get("type")
	if !ok || t == nil {
		return key
	}
	if rv := reflect.ValueOf(t); rv.Kind() == reflect.String {
		return rv.String()
	}
	return key
}

// multipartBody is a pull-based multipart stream.
type multipartBody struct {
	r     io.Reader
	files []*fileReader
}

func (b *multipartBody) Read(p []byte) (int, error) { return b.r.Read(p) }

func (b *multipartBody) Close() error {
	var errs []error
	for _, f := range b.files {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}

// fileReader opens the file on first Read. The file is never closed while a
// Read is in progress: a Close that arrives during a Read is finished by
// that Read.
type fileReader struct {
	file  ExtractedFile
	onErr func(error)

	mu      sync.Mutex
	rc      io.ReadCloser
	reading bool
	closed  bool
}

var errBodyClosed = errors.New("payload: request body closed")

func (fr *fileReader) Read(p []byte) (int, error) {
	fr.mu.Lock()
	if fr.closed {
		fr.mu.Unlock()
		return 0, errBodyClosed
	}
	if fr.rc == nil {
		rc, err := fr.file.File.Open()
		if err != nil {
			fr.mu.Unlock()
			return 0, fr.fail(err)
		}
		fr.rc = rc
	}
	rc := fr.rc
	fr.reading = true
	fr.mu.Unlock()

	n, err := rc.Read(p)

	fr.mu.Lock()
	fr.reading = false
	closed := fr.closed
	fr.mu.Unlock()
	if closed {
		rc.Close()
		return n, errBodyClosed
	}
	if err != nil && err != io.EOF {
		return n, fr.fail(err)
	}
	return n, err
}

func (fr *fileReader) fail(err error) error {
	err = fmt.Errorf("payload: reading file for %q: %w", fr.file.Origin, err)
	if fr.onErr != nil {
		fr.onErr(err)
	}
	return err
}

func (fr *fileReader) Close() error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.closed {
		return nil
	}
	fr.closed = true
	if fr.rc != nil && !fr.reading {
		return fr.rc.Close()
	}
	return nil
}
