// Package filesvc implements core.FileStorage on the local disk and on Backblaze B2.
package filesvc

import (
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// objectKey returns a unique key under folder keeping a readable version of the file name.
func objectKey(folder, name string) string {
	name = unsafeChars.ReplaceAllString(path.Base(strings.ReplaceAll(name, `\`, "/")), "-")
	name = strings.Trim(name, "-.")
	if name == "" {
		name = "file"
	}
	return path.Join(strings.Trim(folder, "/"), uuid.NewString()+"-"+name)
}
