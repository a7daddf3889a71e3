// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.astrophena.name/botapi/bot"
	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/internal/cli"
	"go.astrophena.name/botapi/internal/cli/envflag"
	"go.astrophena.name/botapi/internal/starlark/interpreter"
	"go.astrophena.name/botapi/transformers"
	"go.astrophena.name/botapi/webhook"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"
)

func main() { cli.Main(new(engine)) }

const shutdownTimeout = 5 * time.Second

var errNoToken = errors.New("missing Bot API token: pass -token or set TG_TOKEN")

type engine struct {
	// initialized by doInit
	api      *client.Client
	bot      *bot.Bot
	callback *webhook.Callback
	intr     *interpreter.Interpreter
	handle   starlark.Callable
	logger   *slog.Logger
	registry *prometheus.Registry
	srv      *echo.Echo

	// configuration, read-only after initialization
	addr           *string
	apiRoot        *string
	cacheTTL       *time.Duration
	dir            *string
	secret         *string
	timeout        *time.Duration
	token          *string
	webhookReply   *bool
	webhookTimeout *time.Duration
	webhookURL     *string
	// for tests
	httpc         *http.Client
	noServerStart bool
}

func (e *engine) EnvFlags(fs *flag.FlagSet, getenv func(string) string) {
	e.addr = envflag.Value("addr", "ADDR", ":3000", "Listen on `host:port`.", fs, getenv)
	e.apiRoot = envflag.Value("api-root", "TG_API_ROOT", client.DefaultAPIRoot, "Bot API server `URL`.", fs, getenv)
	e.cacheTTL = envflag.Value("cache-ttl", "KVCACHE_TTL", 24*time.Hour, "Time after which unused kvcache entries expire.", fs, getenv)
	e.dir = envflag.Value("dir", "BOT_DIR", ".", "`Directory` with bot code.", fs, getenv)
	e.secret = envflag.Value("secret", "TG_SECRET", "", "Webhook secret `token`.", fs, getenv)
	e.timeout = envflag.Value("timeout", "TG_TIMEOUT", time.Minute, "Bot API call `timeout`.", fs, getenv)
	e.token = envflag.Value("token", "TG_TOKEN", "", "Telegram Bot API `token`.", fs, getenv)
	e.webhookReply = envflag.Value("webhook-reply", "TG_WEBHOOK_REPLY", false, "Send the first Bot API call of a webhook update as the webhook response.", fs, getenv)
	e.webhookTimeout = envflag.Value("webhook-timeout", "TG_WEBHOOK_TIMEOUT", webhook.DefaultTimeout, "Time to handle a webhook update before responding.", fs, getenv)
	e.webhookURL = envflag.Value("webhook-url", "TG_WEBHOOK_URL", "", "Public `URL` of the /telegram endpoint. If empty, updates are received by long polling.", fs, getenv)
}

func (e *engine) Run(ctx context.Context, env *cli.Env) error {
	e.logger = env.Logger()

	if *e.token == "" {
		return errNoToken
	}
	if err := e.doInit(ctx); err != nil {
		return err
	}

	// Used in tests.
	if e.noServerStart {
		return nil
	}

	if *e.webhookURL != "" {
		if err := e.setWebhook(ctx); err != nil {
			return err
		}
		e.logger.Info("receiving updates with webhook", "url", *e.webhookURL)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.serve(ctx) })
	if *e.webhookURL == "" {
		e.logger.Info("receiving updates with long polling")
		g.Go(func() error { return e.bot.Poll(ctx) })
	}
	return g.Wait()
}

func (e *engine) doInit(ctx context.Context) error {
	if e.logger == nil {
		e.logger = slog.Default()
	}

	e.registry = prometheus.NewRegistry()
	e.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := client.New(*e.token, client.Options{
		APIRoot:    *e.apiRoot,
		Timeout:    *e.timeout,
		HTTPClient: e.httpc,
		CanUseWebhookReply: func(string) bool {
			return *e.webhookReply
		},
		Logger: e.logger,
	})
	if err != nil {
		return err
	}
	e.api = api.Use(
		transformers.NewMetrics(e.registry).Transformer(),
		transformers.AutoRetry(transformers.RetryOptions{
			RetryOnInternalServerErrors: true,
			Logger:                      e.logger,
		}),
		transformers.Throttle(nil),
	)

	e.bot = bot.New(e.api, e.handleUpdate, bot.Options{Logger: e.logger})
	if err := e.bot.Init(ctx); err != nil {
		return err
	}
	if err := e.loadCode(ctx, os.DirFS(*e.dir)); err != nil {
		return err
	}

	e.callback = webhook.New(e.bot, webhook.Options{
		Timeout:     *e.webhookTimeout,
		OnTimeout:   webhook.Return,
		SecretToken: *e.secret,
		Logger:      e.logger,
	})
	e.srv = e.newServer()
	return nil
}

func (e *engine) setWebhook(ctx context.Context) error {
	_, err := e.api.Raw().SetWebhook(ctx, &client.SetWebhookParams{
		URL:         *e.webhookURL,
		SecretToken: *e.secret,
	})
	return err
}

func (e *engine) serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() { errc <- e.srv.Start(*e.addr) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return e.srv.Shutdown(shutdownCtx)
	}
}
