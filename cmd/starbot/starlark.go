// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"go.astrophena.name/botapi/bot"
	"go.astrophena.name/botapi/internal/starlark/interpreter"
	"go.astrophena.name/botapi/internal/starlark/kvcache"
	"go.astrophena.name/botapi/internal/starlark/starconv"
	"go.astrophena.name/botapi/internal/starlark/telegram"

	starlarkjson "go.starlark.net/lib/json"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

const mainFile = "bot.star"

var errNoHandleFunc = errors.New("handle function not found in " + mainFile)

// loadCode executes bot.star from fsys and looks up its handle function.
func (e *engine) loadCode(ctx context.Context, fsys fs.FS) error {
	me := e.bot.Me()
	intr := &interpreter.Interpreter{
		Predeclared: starlark.StringDict{
			"config": starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
				"bot_id":       starlark.MakeInt64(me.ID),
				"bot_username": starlark.String(me.Username),
			}),
			"json":     starlarkjson.Module,
			"kvcache":  kvcache.Module(ctx, *e.cacheTTL),
			"telegram": telegram.Module(e.api),
			"time":     starlarktime.Module,
		},
		Packages: map[string]interpreter.Loader{
			interpreter.MainPkg: interpreter.FSLoader(fsys),
		},
		Logger: func(file string, line int, message string) {
			e.logger.Info(message, "file", file, "line", line)
		},
	}
	if err := intr.Init(ctx); err != nil {
		return err
	}

	globals, err := intr.LoadModule(ctx, interpreter.MainPkg, mainFile)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return fmt.Errorf("%s", evalErr.Backtrace())
		}
		return err
	}
	handle, ok := globals["handle"].(starlark.Callable)
	if !ok {
		return errNoHandleFunc
	}

	e.intr, e.handle = intr, handle
	return nil
}

// handleUpdate calls the handle function of the bot with the update.
func (e *engine) handleUpdate(ctx context.Context, c *bot.Context) error {
	b, err := json.Marshal(c.Update)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	update, err := starconv.ToValue(raw)
	if err != nil {
		return err
	}

	th := e.intr.Thread(ctx)
	th.Name = fmt.Sprintf("update %d", c.Update.UpdateID)
	telegram.SetClient(th, c.API)

	if _, err := starlark.Call(th, e.handle, starlark.Tuple{update}, nil); err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return fmt.Errorf("%s", evalErr.Backtrace())
		}
		return err
	}
	return nil
}
