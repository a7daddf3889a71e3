// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package client

import (
	"context"
	"slices"
)

// CallFunc calls a Bot API method and returns the raw response.
type CallFunc func(ctx context.Context, method string, payload any) (*Response, error)

// Transformer intercepts Bot API calls. It may call next any number of times,
// possibly with a different context, method or payload, or skip it and
// return a response of its own.
type Transformer func(ctx context.Context, next CallFunc, method string, payload any) (*Response, error)

// chain is an immutable composition of transformers around a terminal call.
type chain struct {
	installed []Transformer
	call      CallFunc
}

// newChain composes installed around terminal so that installed[0] is the
// outermost transformer.
func newChain(terminal CallFunc, installed []Transformer) *chain {
	call := terminal
	for i := len(installed) - 1; i >= 0; i-- {
		t, next := installed[i], call
		call = func(ctx context.Context, method string, payload any) (*Response, error) {
			return t(ctx, next, method, payload)
		}
	}
	return &chain{installed: installed, call: call}
}

// Use installs transformers. Transformers installed earlier wrap the ones
// installed later, so they see every call first. Use returns c to allow
// chaining.
func (c *Client) Use(transformers ...Transformer) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	installed := slices.Concat(c.chain.Load().installed, transformers)
	c.chain.Store(newChain(c.callAPI, installed))
	return c
}

// InstalledTransformers returns all installed transformers in the order of
// installation.
func (c *Client) InstalledTransformers() []Transformer {
	return slices.Clone(c.chain.Load().installed)
}
