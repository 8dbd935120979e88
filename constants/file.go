package constants

import "strings"

// App identity reported by the root and health endpoints.
const (
	AppName = "PDF Data Extractor"
	Version = "1.0.0"
)

// AllowedExtensions holds the upload extensions accepted by the API.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether a (possibly dotted, mixed-case) extension is
// accepted for upload.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
