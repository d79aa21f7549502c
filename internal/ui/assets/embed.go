// Package assets holds the dashboard's static files.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed static
var files embed.FS

// StaticFS returns the embedded tree; paths start with "static/".
func StaticFS() fs.FS { return files }
