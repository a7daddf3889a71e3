// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package payload encodes Telegram Bot API method arguments into HTTP request
// bodies.
//
// Payloads without files are sent as JSON. Payloads that reference at least
// one [InputFile], at any depth, are sent as multipart/form-data: every file
// is replaced by an attach://<id> placeholder and streamed as a separate
// part after the regular fields.
//
// A payload is a map with string keys, a struct (encoded following the
// encoding/json conventions for field tags), or a pointer to either. Keys
// whose values are nil are treated as absent.
package payload

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Request describes the HTTP request that carries a payload.
type Request struct {
	Method string
	Header http.Header
	// Body is read lazily by the HTTP transport. For multipart requests it
	// is an io.ReadCloser that releases opened files on Close.
	Body io.Reader
}

// RequiresFormData reports whether v is an *InputFile or contains one
// anywhere inside its maps, structs and slices.
func RequiresFormData(v any) bool {
	return containsFile(normalize(v))
}

// Marshal encodes v as JSON, dropping object keys with nil values.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, normalize(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JSON returns a request that sends v as a JSON object.
func JSON(v any) (*Request, error) {
	obj, err := toObject(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encode(&buf, obj); err != nil {
		return nil, err
	}
	return &Request{
		Method: http.MethodPost,
		Header: http.Header{
			"Content-Type": {"application/json"},
			"Connection":   {"keep-alive"},
		},
		Body: bytes.NewReader(buf.Bytes()),
	}, nil
}

// ReplyBody encodes v as a JSON object with an additional "method" key. This
// is the format expected by Telegram in a response to a webhook request.
func ReplyBody(method string, v any) ([]byte, error) {
	obj, err := toObject(v)
	if err != nil {
		return nil, err
	}
	obj = obj.set("method", method)
	var buf bytes.Buffer
	if err := encode(&buf, obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toObject normalizes v and checks that the result is an object. A nil
// payload is an empty object.
func toObject(v any) (object, error) {
	switch n := normalize(v).(type) {
	case nil:
		return object{}, nil
	case object:
		return n, nil
	default:
		return nil, fmt.Errorf("payload: want a map or a struct, got %T", v)
	}
}
