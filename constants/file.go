package constants

import "strings"

// Format is the detected shape of an incoming document.
type Format string

// Stable values (these exact strings are recorded as input_type in the interaction log).
const (
	FormatDocument Format = "PDF"
	FormatJSON     Format = "JSON"
	FormatEmail    Format = "Email"
	FormatText     Format = "Text"
)

// DocumentExtensions holds the file extensions treated as binary documents.
var DocumentExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsDocumentExt reports whether ext (with or without the dot) names a document format.
func IsDocumentExt(ext string) bool {
	_, ok := DocumentExtensions[NormalizeExt(ext)]
	return ok
}
