//go:build !dev

package frontend

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var dist embed.FS

// Dist returns the built app embedded at compile time.
func Dist() (fs.FS, error) {
	return fs.Sub(dist, "dist")
}
