//go:build desktop

package desktop

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/frontend"
)

// Available reports whether this binary was built with the native window.
const Available = true

// Run opens the window and blocks until it is closed. Files come from the
// embedded build and everything else from APIHandler. Data changes are
// forwarded to the page as "data:changed" events.
func Run(a *app.App, title string) error {
	dist, err := frontend.Dist()
	if err != nil {
		return fmt.Errorf("failed to open frontend build: %w", err)
	}

	api, err := APIHandler(a, nil)
	if err != nil {
		return err
	}

	bindings := NewBindings(a)
	if title == "" {
		title = frontend.DefaultTitle
	}

	err = wails.Run(&options.App{
		Title:  title,
		Width:  Width,
		Height: Height,
		AssetServer: &assetserver.Options{
			Assets:  dist,
			Handler: api,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup: func(ctx context.Context) {
			bindings.Startup(ctx)
			a.Subscribe(func(topic string) {
				runtime.EventsEmit(ctx, "data:changed", topic)
			})
		},
		Bind: []interface{}{
			bindings,
		},
	})
	if err != nil {
		return fmt.Errorf("desktop window: %w", err)
	}
	return nil
}
