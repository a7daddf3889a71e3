// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Starbot runs a Telegram bot written in Starlark.

Starbot loads bot.star from the bot directory and calls its handle function
with every update, converted to a Starlark dictionary. Updates are received
from a webhook when -webhook-url is set, and by long polling otherwise.

# Usage

	$ starbot [flags...]

# Starlark Environment

The following modules are available to bot code:

	config: Contains bot configuration.
		- bot_id (int): The Telegram user ID of the bot.
		- bot_username (str): The Telegram username of the bot.

	telegram: Allows interaction with the Telegram Bot API.
		- call(method, args): Calls a Telegram Bot API method.
		- file(data, name): Wraps data to upload with call.

	kvcache: Provides a simple key-value cache.
		- get(key: str) -> value | None: Retrieves the value for the key. Returns None if not found or expired. Resets TTL on access.
		- set(key: str, value: any) -> None: Stores the value under the key. Resets TTL on set.

	json: See https://pkg.go.dev/go.starlark.net/lib/json.

	time: See https://pkg.go.dev/go.starlark.net/lib/time.

Other files in the bot directory can be loaded with load("file.star", ...).

When -webhook-reply is set, the first Bot API call made while handling a
webhook update is sent as the webhook response, saving an HTTP request.
Its result is not known to the bot, so call returns True for it.

# HTTP Endpoints

	POST /telegram: Telegram webhook.
	GET /metrics: Prometheus metrics.
	GET /health: Health check.
	GET /debug/modules: Loaded Starlark modules.

# Example

	def handle(update):
	    msg = update.get("message")
	    if not msg:
	        return
	    key = str(msg["chat"]["id"])
	    count = (kvcache.get(key) or 0) + 1
	    kvcache.set(key, count)
	    telegram.call("sendMessage", {
	        "chat_id": msg["chat"]["id"],
	        "text": "Message #%d" % count,
	    })
*/
package main

import (
	_ "embed"

	"go.astrophena.name/botapi/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
