package core

import (
	"context"
	"io"
	"path"
	"strings"
)

// Storage folders
const (
	FolderWorks         = "works"
	FolderMaterials     = "materials"
	FolderAnnouncements = "announcements"
)

type (
	// File is an opaque blob to be uploaded.
	File struct {
		Name        string
		ContentType string
		Size        int64
		Content     io.Reader
	}

	// FileStorage is any service that can store files and return their public URL.
	FileStorage interface {
		Upload(ctx context.Context, folder string, f File) (string, error)
	}
)

// Ext returns the lower-cased extension of the file name, without the dot.
func (f File) Ext() string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(f.Name), "."))
}
