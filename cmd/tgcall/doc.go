// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Tgcall calls a Telegram Bot API method and prints its result.

# Usage

	$ TG_TOKEN=... tgcall [flags...] <method> [key=value...]

Arguments after the method name set parameters of the call. Values that are
valid JSON (numbers, booleans, objects, arrays and quoted strings) are sent
decoded, other values are sent as strings. A value that starts with @ is the
path of a file to upload.

For example, to send a document with a caption:

	$ tgcall sendDocument chat_id=123456789 document=@report.pdf caption='Weekly report'

To send a message with an inline keyboard:

	$ tgcall sendMessage chat_id=123456789 text=Hi \
	    reply_markup='{"inline_keyboard":[[{"text":"Open","url":"https://example.com"}]]}'

The result is printed as indented JSON.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/botapi/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
