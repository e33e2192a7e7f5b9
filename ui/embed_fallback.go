//go:build !ui_embed

package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

// Without a frontend build, a minimal console page shows the backend
// state and its live output.
//
//go:embed console
var consoleFS embed.FS

// Handler serves the built-in console page.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(consoleFS, "console")
	if err != nil {
		return nil, err
	}
	return spaHandler(fsys), nil
}
