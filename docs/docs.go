// Package docs embeds the OpenAPI description served at /docs/swagger.yml.
package docs

import "embed"

//go:embed swagger.yml
var FS embed.FS
