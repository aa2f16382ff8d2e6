// Package web embeds the dashboard frontend so the binary serves its
// own UI without a separate deployment step.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist
var assets embed.FS

// FS returns the embedded dashboard as an http.FileSystem rooted at
// dist/.
func FS() (http.FileSystem, error) {
	distFS, err := fs.Sub(assets, "dist")
	if err != nil {
		return nil, err
	}
	return http.FS(distFS), nil
}
