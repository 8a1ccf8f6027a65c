// Package appfs embeds the static assets shipped with the binaries.
package appfs

import "embed"

//go:embed all:templates
var FS embed.FS

// EmailTemplatesDir is the directory of the email templates inside FS.
const EmailTemplatesDir = "templates/email"
