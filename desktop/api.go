package desktop

import (
	"log/slog"
	"net/http"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/web"
)

// APIHandler serves the page's /api requests inside the window. The window
// has a single user, so unlocking the App is what signs the page in.
func APIHandler(a *app.App, logger *slog.Logger) (http.Handler, error) {
	return web.New(a, router.Default(), web.Options{
		SingleUser: true,
		Logger:     logger,
	}).Handler()
}
