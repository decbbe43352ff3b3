//go:build dev

package frontend

import (
	"io/fs"
	"os"
)

// Dist reads the built app from disk so rebuilds show up without recompiling.
func Dist() (fs.FS, error) {
	return os.DirFS("frontend/dist"), nil
}
