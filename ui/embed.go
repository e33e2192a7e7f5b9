//go:build ui_embed

package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

// Build with: go build -tags ui_embed .
// Requires the frontend build output in ui/dist.

//go:embed all:dist
var distFS embed.FS

// Handler serves the embedded frontend build.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(distFS, "dist")
	if err != nil {
		return nil, err
	}
	return spaHandler(fsys), nil
}
