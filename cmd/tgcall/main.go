// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/cli"
	"go.astrophena.name/botapi/internal/cli/envflag"
	"go.astrophena.name/botapi/payload"
)

func main() { cli.Main(new(app)) }

// errNoToken is returned when neither -token nor TG_TOKEN is set.
var errNoToken = errors.New("missing Bot API token: pass -token or set TG_TOKEN")

type app struct {
	token   *string
	apiRoot *string
	timeout *time.Duration
	testEnv *bool

	httpc *http.Client // for tests
}

func (a *app) EnvFlags(fs *flag.FlagSet, getenv func(string) string) {
	a.token = envflag.Value("token", "TG_TOKEN", "", "Telegram Bot API `token`.", fs, getenv)
	a.apiRoot = envflag.Value("api-root", "TG_API_ROOT", client.DefaultAPIRoot, "Bot API server `URL`.", fs, getenv)
	a.timeout = envflag.Value("timeout", "TG_TIMEOUT", time.Minute, "Call `timeout`.", fs, getenv)
	a.testEnv = envflag.Value("test", "TG_TEST", false, "Use the test environment.", fs, getenv)
}

func (a *app) Run(ctx context.Context, env *cli.Env) error {
	if len(env.Args) < 1 {
		return fmt.Errorf("%w: missing method name", cli.ErrInvalidArgs)
	}
	if *a.token == "" {
		return errNoToken
	}
	method, params := env.Args[0], env.Args[1:]

	p, err := parseParams(params)
	if err != nil {
		return err
	}

	opts := client.Options{
		APIRoot:    *a.apiRoot,
		Timeout:    *a.timeout,
		HTTPClient: a.httpc,
		Logger:     env.Logger(),
	}
	if *a.testEnv {
		opts.Environment = client.EnvTest
	}
	c, err := client.New(*a.token, opts)
	if err != nil {
		return err
	}

	res, err := c.Call(ctx, method, p)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, res, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(env.Stdout)
	return err
}

// parseParams parses key=value arguments into a payload.
func parseParams(args []string) (map[string]any, error) {
	p := make(map[string]any, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: want key=value, got %q", cli.ErrInvalidArgs, arg)
		}
		p[key] = parseValue(val)
	}
	return p, nil
}

func parseValue(val string) any {
	if path, ok := strings.CutPrefix(val, "@"); ok && path != "" {
		return payload.FromPath(path)
	}
	var v any
	if json.Valid([]byte(val)) && json.Unmarshal([]byte(val), &v) == nil {
		// Keep large IDs intact.
		if _, isNumber := v.(float64); isNumber {
			return json.RawMessage(val)
		}
		return v
	}
	return val
}
