package constants

import "strings"

// AllowedContentTypes holds the page image types accepted for extraction.
var AllowedContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/webp": {},
	"image/gif":  {},
}

// ContentTypeByExt maps a page file extension to its image content type.
var ContentTypeByExt = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// NormalizeContentType lowercases a MIME type and drops any parameters.
func NormalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsAllowedContentType reports whether pages of this type can be sent for extraction.
func IsAllowedContentType(ct string) bool {
	_, ok := AllowedContentTypes[NormalizeContentType(ct)]
	return ok
}
