// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Error is returned when the Bot API understood a request and rejected it.
type Error struct {
	// Method is the Bot API method that was called.
	Method string
	// Payload is the payload the method was called with.
	Payload any

	ErrorCode   int
	Description string
	Parameters  ResponseParameters
}

func (e *Error) Error() string {
	return "Call to '" + e.Method + "' failed! (" + strconv.Itoa(e.ErrorCode) + ": " + e.Description + ")"
}

func (c *Client) apiError(resp *Response, method string, payload any) *Error {
	switch resp.ErrorCode {
	case 401:
		c.log.Debug("error 401 means that the bot token is wrong, talk to https://t.me/BotFather to check it", "method", method)
	case 409:
		c.log.Debug("error 409 means that the bot is running several times on long polling, consider revoking the token if no other instance is running", "method", method)
	}
	e := &Error{
		Method:      method,
		Payload:     payload,
		ErrorCode:   resp.ErrorCode,
		Description: resp.Description,
	}
	if resp.Parameters != nil {
		e.Parameters = *resp.Parameters
	}
	return e
}

// StatusError is returned when the Bot API responds with a body that is not
// a valid API response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("want a JSON response, got %d %s: %v", e.StatusCode, e.Status, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// TransportError is returned when the HTTP request to the Bot API failed.
//
// The message of the underlying error is included in Error only when
// [Options.SensitiveLogs] is set, because it may contain the request URL
// with the bot token. Without it, the token is also scrubbed from the
// wrapped error.
type TransportError struct {
	Method string
	Err    error

	sensitive bool
}

func (e *TransportError) Error() string {
	msg := "Network request for '" + e.Method + "' failed!"
	var se *StatusError
	if errors.As(e.Err, &se) {
		msg += " (" + strconv.Itoa(se.StatusCode) + ": " + se.Status + ")"
	}
	if e.sensitive {
		msg += " " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error { return e.Err }

func (c *Client) transportError(method string, err error) *TransportError {
	if !c.opts.SensitiveLogs {
		err = &scrubbedError{err: err, scrubber: c.scrubber}
	}
	return &TransportError{Method: method, Err: err, sensitive: c.opts.SensitiveLogs}
}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string { return se.scrubber.Replace(se.err.Error()) }
func (se *scrubbedError) Unwrap() error { return se.err }

// TimeoutError is returned when a request did not complete within
// [Options.Timeout].
type TimeoutError struct {
	Method  string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return "Request to '" + e.Method + "' timed out after " + e.Timeout.String()
}

// ErrBadContext is returned when a method is called without a usable
// context.
var ErrBadContext = errors.New("client: invalid context")

// ErrNoResponse is returned when a transformer returns neither a response
// nor an error.
var ErrNoResponse = errors.New("client: transformer returned no response")

func checkContext(ctx context.Context, payload any) error {
	if ctx != nil {
		if _, ok := payload.(context.Context); !ok {
			return nil
		}
	}
	return fmt.Errorf(
		"%w: got payload %s and context %s; "+
			"did you pass a second context as payload? "+
			"Merge cancellation sources into a single context.Context (for example, with context.AfterFunc) "+
			"and pass it as the first argument",
		ErrBadContext, preview(payload), preview(ctx),
	)
}

// preview returns the first 16 characters of the printed form of v.
func preview(v any) string {
	s := fmt.Sprintf("%v", v)
	if utf8.RuneCountInString(s) <= 16 {
		return s
	}
	return string([]rune(s)[:16]) + "…"
}
