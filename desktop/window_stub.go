//go:build !desktop

package desktop

import (
	"errors"

	"github.com/robinvdvleuten/margin/app"
)

// Available reports whether this binary was built with the native window.
const Available = false

// ErrUnavailable is returned by Run in builds without the desktop tag.
var ErrUnavailable = errors.New("desktop window not available: rebuild with -tags desktop")

// Run reports ErrUnavailable.
func Run(a *app.App, title string) error {
	return ErrUnavailable
}
