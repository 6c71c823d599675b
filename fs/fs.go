// Package appfs embeds the static assets the binaries need at runtime:
// database migrations and email templates.
package appfs

import (
	"embed"
	"io/fs"
	"log"

	"github.com/studai/backend/core"
)

//go:embed migrations templates
var FS embed.FS

func init() {
	tmplFS, err := fs.Sub(FS, "templates")
	if err != nil {
		log.Fatalf("appfs.init: %v", err)
	}
	core.TemplateFS = tmplFS
}
