package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Image is one picture of an album.
type Image struct {
	Name string `json:"name"`
	// Path is slash-separated and relative to the library root.
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	MimeType string    `json:"mimeType"`
}

// Album is a directory that holds images.
type Album struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Images  int       `json:"images"`
	ModTime time.Time `json:"modTime"`
	// Cover is the path of the first image, by name.
	Cover string `json:"cover,omitempty"`
}

// Listing is the content of one album.
type Listing struct {
	Album  Album   `json:"album"`
	Images []Image `json:"images"`
	// Albums are the direct sub-albums.
	Albums []Album `json:"albums,omitempty"`
}

// ImageExtensions maps supported image extensions to their MIME type.
// HEIC, HEIF and AVIF are only readable through libvips.
var ImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// IsImage reports whether name has a supported image extension.
func IsImage(name string) bool {
	_, ok := ImageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// MimeType returns the MIME type of an image name.
func MimeType(name string) string {
	if mime, ok := ImageExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return "application/octet-stream"
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
