package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html static
var files embed.FS

// Templates parses every page together with the shared layout blocks.
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}

func Static() (fs.FS, error) {
	return fs.Sub(files, "static")
}
