package filesystem

import "strings"

// ResolvePath converts a document URI to a local path for opening.
// Handles file:// URIs and bare paths.
func ResolvePath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}
