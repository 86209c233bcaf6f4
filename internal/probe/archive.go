package probe

import "strings"

// archiveContentTypes are the MIME types accepted as archive-confirming.
// application/octet-stream is included because most mirrors serve every
// binary with it.
var archiveContentTypes = []string{
	"application/gzip",
	"application/octet-stream",
	"application/x-7z-compressed",
	"application/x-bzip2",
	"application/x-gtar-compressed",
	"application/x-gzip",
	"application/x-rar-compressed",
	"application/x-tar",
	"application/x-xz",
	"application/x-zip",
	"application/x-zip-compressed",
	"application/zip",
}

// IsArchiveContentType reports whether contentType contains one of the
// archive MIME types. Parameters such as "; charset=binary" are tolerated.
func IsArchiveContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	for _, t := range archiveContentTypes {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

// ArchiveContentTypes returns a copy of the accepted MIME types.
func ArchiveContentTypes() []string {
	out := make([]string, len(archiveContentTypes))
	copy(out, archiveContentTypes)
	return out
}
