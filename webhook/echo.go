// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package webhook

import (
	"context"
	"net/http"

	"go.astrophena.name/botapi/client"

	"github.com/labstack/echo/v4"
)

type echoRequest struct {
	responder
	c echo.Context
}

func (er *echoRequest) Update() (*client.Update, error) {
	var u client.Update
	if err := er.c.Bind(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (er *echoRequest) Header(name string) string { return er.c.Request().Header.Get(name) }

func (er *echoRequest) Respond(ctx context.Context, body []byte) error {
	return er.write(func() error {
		return er.c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
	})
}

func (er *echoRequest) Unauthorized() error {
	return er.write(func() error {
		return echo.ErrUnauthorized
	})
}

func (er *echoRequest) End() error {
	return er.write(func() error {
		return er.c.NoContent(http.StatusOK)
	})
}

// Echo returns an echo handler for webhook requests. Errors are returned to
// echo, which reports them with its HTTPErrorHandler.
func (cb *Callback) Echo() echo.HandlerFunc {
	return func(c echo.Context) error {
		er := &echoRequest{c: c}
		defer er.finish()
		return cb.Handle(c.Request().Context(), er)
	}
}
