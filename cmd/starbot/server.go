// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"net/http"

	"go.astrophena.name/botapi/internal/version"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (e *engine) newServer() *echo.Echo {
	srv := echo.New()
	srv.HideBanner = true
	srv.HidePort = true
	srv.Use(middleware.Recover())

	srv.POST("/telegram", e.callback.Echo())
	srv.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})))
	srv.GET("/health", e.health)
	srv.GET("/debug/modules", e.debugModules)
	return srv
}

type healthResponse struct {
	OK          bool   `json:"ok"`
	Version     string `json:"version"`
	BotUsername string `json:"bot_username"`
}

func (e *engine) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		OK:          true,
		Version:     version.Version().Version,
		BotUsername: e.bot.Me().Username,
	})
}

func (e *engine) debugModules(c echo.Context) error {
	var modules []string
	for _, key := range e.intr.Visited() {
		modules = append(modules, key.String())
	}
	return c.JSON(http.StatusOK, modules)
}
