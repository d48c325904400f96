package artifact

import (
	"context"
	"mime"
	"path"
	"regexp"
	"strings"
)

// Store is the artifact directory contract used by the world generator
// and the generation cache.
type Store interface {
	// Save writes data under name and returns its public path.
	Save(ctx context.Context, name string, data []byte) (string, error)

	// Latest returns the public path of the most recent artifact whose base
	// name matches pattern, or "" when none does.
	Latest(pattern *regexp.Regexp) string

	// Exists reports whether publicPath refers to a stored artifact.
	Exists(publicPath string) bool
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && path.Base(name) == name
}

// PublicPath converts a filesystem path into a root-relative public path:
// forward slashes, the public root stripped and exactly one leading slash.
func PublicPath(root, fsPath string) string {
	p := strings.ReplaceAll(fsPath, `\`, "/")
	r := strings.TrimRight(strings.ReplaceAll(root, `\`, "/"), "/")
	if r != "" && (p == r || strings.HasPrefix(p, r+"/")) {
		p = p[len(r):]
	}
	return "/" + strings.TrimLeft(p, "/")
}

var mimeExtensions = map[string]string{
	"image/png":       "png",
	"image/jpeg":      "jpg",
	"image/jpg":       "jpg",
	"image/webp":      "webp",
	"image/gif":       "gif",
	"video/mp4":       "mp4",
	"video/webm":      "webm",
	"audio/wav":       "wav",
	"audio/wave":      "wav",
	"audio/x-wav":     "wav",
	"audio/mpeg":      "mp3",
	"audio/mp3":       "mp3",
	"audio/ogg":       "ogg",
	"audio/aac":       "aac",
	"audio/flac":      "flac",
	"application/ogg": "ogg",
}

// ExtensionForMIME returns a lowercase file extension (without the dot) for
// a MIME type, ignoring parameters. Unknown types map to "bin".
func ExtensionForMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if ext, ok := mimeExtensions[base]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}
