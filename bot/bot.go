// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements a minimal update dispatcher on top of package
// client.
//
// A [Bot] passes every update to a single [Handler]. It receives updates
// either from a webhook, by implementing [webhook.Dispatcher], or by long
// polling with [Bot.Poll].
package bot

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"go.astrophena.name/botapi/client"
	"go.astrophena.name/botapi/webhook"
)

var _ webhook.Dispatcher = (*Bot)(nil)

// ErrNoChat is returned by [Context.Reply] for updates that don't belong to
// a chat.
var ErrNoChat = errors.New("bot: update has no chat")

// Handler handles an update.
type Handler func(ctx context.Context, c *Context) error

// Context describes an update being handled.
type Context struct {
	// Update is the update.
	Update *client.Update
	// API calls the Bot API. When the update came from a webhook, the first
	// eligible call is sent as the webhook response.
	API *client.Client
	// Me is the bot itself.
	Me *client.User
}

// Chat returns the chat the update belongs to.
func (c *Context) Chat() (*client.Chat, bool) {
	u := c.Update
	switch {
	case u.Message != nil:
		return &u.Message.Chat, true
	case u.EditedMessage != nil:
		return &u.EditedMessage.Chat, true
	case u.ChannelPost != nil:
		return &u.ChannelPost.Chat, true
	case u.EditedChannelPost != nil:
		return &u.EditedChannelPost.Chat, true
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return &u.CallbackQuery.Message.Chat, true
	}
	return nil, false
}

// Reply sends a text message to the chat the update belongs to.
func (c *Context) Reply(ctx context.Context, text string) (*client.Message, error) {
	chat, ok := c.Chat()
	if !ok {
		return nil, ErrNoChat
	}
	return c.API.Raw().SendMessage(ctx, &client.SendMessageParams{
		ChatID: client.ChatByID(chat.ID),
		Text:   text,
	})
}

// Options configure a Bot.
type Options struct {
	// PollTimeout is the long polling timeout in seconds. Defaults to 30.
	PollTimeout int
	// AllowedUpdates limits the update types received by Poll.
	AllowedUpdates []string
	// RetryInterval is the time Poll waits after a failed getUpdates call.
	// Defaults to 3 seconds.
	RetryInterval time.Duration
	// Logger is used for logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Bot dispatches updates to a Handler. It is safe for concurrent use.
type Bot struct {
	api     *client.Client
	handler Handler
	opts    Options
	log     *slog.Logger

	me atomic.Pointer[client.User]
}

// New returns a new Bot that calls the Bot API with api.
func New(api *client.Client, h Handler, opts Options) *Bot {
	opts.PollTimeout = cmp.Or(opts.PollTimeout, 30)
	opts.RetryInterval = cmp.Or(opts.RetryInterval, 3*time.Second)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bot{api: api, handler: h, opts: opts, log: opts.Logger}
}

// Init fetches information about the bot.
func (b *Bot) Init(ctx context.Context) error {
	me, err := b.api.Raw().GetMe(ctx)
	if err != nil {
		return err
	}
	b.me.Store(me)
	b.log.Debug("initialized bot", "username", me.Username, "id", me.ID)
	return nil
}

// Me returns the bot itself, or nil before Init.
func (b *Bot) Me() *client.User { return b.me.Load() }

// HandleUpdate passes u to the handler. If reply is not nil, the handler's
// first eligible call is sent with it.
func (b *Bot) HandleUpdate(ctx context.Context, u *client.Update, reply client.WebhookReplyFunc) error {
	api := b.api
	if reply != nil {
		api = api.WithWebhookReply(reply)
	}
	return b.handler(ctx, &Context{Update: u, API: api, Me: b.Me()})
}

// Poll receives updates with long polling until ctx is canceled. It removes
// the webhook first, since Telegram doesn't deliver updates with getUpdates
// while a webhook is set.
//
// Updates are handled one at a time; handler errors are logged.
func (b *Bot) Poll(ctx context.Context) error {
	if b.Me() == nil {
		if err := b.Init(ctx); err != nil {
			return err
		}
	}
	if _, err := b.api.Raw().DeleteWebhook(ctx, &client.DeleteWebhookParams{}); err != nil {
		return err
	}

	var offset int64
	for {
		updates, err := b.api.Raw().GetUpdates(ctx, &client.GetUpdatesParams{
			Offset:         offset,
			Timeout:        b.opts.PollTimeout,
			AllowedUpdates: b.opts.AllowedUpdates,
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			wait := b.opts.RetryInterval
			var apiErr *client.Error
			if errors.As(err, &apiErr) && apiErr.Parameters.RetryAfter > 0 {
				wait = time.Duration(apiErr.Parameters.RetryAfter) * time.Second
			}
			b.log.Error("getting updates failed", "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if err := b.HandleUpdate(ctx, &u, nil); err != nil {
				b.log.Error("handling update failed", "update_id", u.UpdateID, "err", err)
			}
		}
	}
}
