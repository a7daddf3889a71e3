// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package telegram contains a Starlark module that exposes the Telegram Bot API.

This module provides two functions: call and file.

# call

The call function takes two arguments:

  - method (string): The Telegram Bot API method to call.
  - args (dict, optional): The arguments to pass to the method.

For example, to send a message to a chat:

	message = telegram.call(
	    method="sendMessage",
	    args={
	        "chat_id": 123456789,
	        "text": "Hello, world!",
	    }
	)

It returns the result of the method. Failed calls stop the script with an
error.

# file

The file function wraps bytes to upload:

  - data (bytes or string): The contents of the file.
  - name (string, optional): The file name.

Files can be placed anywhere in the arguments of call, and can be sent only
once. For example:

	telegram.call(
	    method="sendDocument",
	    args={
	        "chat_id": 123456789,
	        "document": telegram.file(data="hello", name="hello.txt"),
	    }
	)
*/
package telegram

import (
	"encoding/json"
	"fmt"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/starlark/interpreter"
	"go.astrophena.name/botapi/internal/starlark/starconv"
	"go.astrophena.name/botapi/payload"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

const clientKey = "telegram.client"

// Module returns a Starlark module that calls the Bot API with c.
func Module(c *client.Client) *starlarkstruct.Module {
	m := &module{c: c}
	return &starlarkstruct.Module{
		Name: "telegram",
		Members: starlark.StringDict{
			"call": starlark.NewBuiltin("telegram.call", m.call),
			"file": starlark.NewBuiltin("telegram.file", newFile),
		},
	}
}

// SetClient makes the module use c for calls made from th. It is used to
// answer a webhook request with a client created for it.
func SetClient(th *starlark.Thread, c *client.Client) { th.SetLocal(clientKey, c) }

type module struct {
	c *client.Client
}

func (m *module) client(th *starlark.Thread) *client.Client {
	if c, ok := th.Local(clientKey).(*client.Client); ok {
		return c
	}
	return m.c
}

func (m *module) call(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		method   string
		argsDict *starlark.Dict
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "method", &method, "args?", &argsDict); err != nil {
		return nil, err
	}

	var p any
	if argsDict != nil {
		var err error
		if p, err = starconv.FromValue(argsDict); err != nil {
			return nil, fmt.Errorf("%s: converting args: %w", b.Name(), err)
		}
	}

	raw, err := m.client(thread).Call(interpreter.Context(thread), method, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Name(), err)
	}

	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%s: decoding result: %w", b.Name(), err)
	}
	return starconv.ToValue(result)
}

// file is a Starlark value holding a file to upload.
type file struct {
	f *payload.InputFile
}

var _ starconv.GoValuer = (*file)(nil)

func newFile(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		data starlark.Value
		name string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "data", &data, "name?", &name); err != nil {
		return nil, err
	}
	var buf []byte
	switch d := data.(type) {
	case starlark.Bytes:
		buf = []byte(d)
	case starlark.String:
		buf = []byte(d)
	default:
		return nil, fmt.Errorf("%s: want bytes or string for data, got %s", b.Name(), data.Type())
	}
	return &file{f: payload.FromBytes(buf, name)}, nil
}

func (f *file) GoValue() any          { return f.f }
func (f *file) String() string        { return "<telegram.file " + f.f.String() + ">" }
func (f *file) Type() string          { return "telegram.file" }
func (f *file) Freeze()               {}
func (f *file) Truth() starlark.Bool  { return starlark.True }
func (f *file) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", f.Type()) }
