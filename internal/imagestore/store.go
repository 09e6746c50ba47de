// Package imagestore uploads image payloads to an external host and hands
// back stable public URLs. Only the URL is ever persisted.
package imagestore

import "context"

// Folder labels partition uploads by purpose.
const (
	FolderPosts    = "posts"
	FolderProfiles = "profiles"
	FolderBanners  = "banners"
)

type Image struct {
	Data        []byte
	ContentType string
}

type Store interface {
	// Upload stores the image under the given folder and returns its public
	// URL.
	Upload(ctx context.Context, img Image, folder string) (string, error)
}
