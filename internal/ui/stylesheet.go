package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"sync"

	"github.com/Deji-py/insta-enricher/internal/ui/assets"
)

const stylesheetPath = "/ui/static/css/app.css"

// stylesheetHref is app.css with a content hash query, so a redeploy with new
// styles is never served from a stale browser cache.
var stylesheetHref = sync.OnceValue(func() string {
	raw, err := fs.ReadFile(assets.StaticFS(), "static/css/app.css")
	if err != nil {
		return stylesheetPath
	}
	sum := sha256.Sum256(raw)
	return stylesheetPath + "?v=" + hex.EncodeToString(sum[:4])
})
