package server

import (
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// StaticConfig configures static file serving.
type StaticConfig struct {
	// Dir is the directory files are served from. Empty disables
	// static serving.
	Dir string

	// Prefix is the URL prefix, default "/".
	Prefix string
}

// staticFiles serves files from a directory, with the request path
// sanitized so serving can never escape the configured directory.
type staticFiles struct {
	dir    string
	prefix string
	fs     http.FileSystem
}

func newStaticFiles(cfg StaticConfig) *staticFiles {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &staticFiles{
		dir:    cfg.Dir,
		prefix: prefix,
		fs:     http.Dir(cfg.Dir),
	}
}

// relPath returns a sanitized relative path for a static file request.
// It rejects traversal and absolute-path tricks.
func (s *staticFiles) relPath(urlPath string) (string, bool) {
	if !strings.HasPrefix(urlPath, s.prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(urlPath, s.prefix)
	if rel == "" {
		return "", false
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// After prefix stripping, a leading "/" indicates an absolute-path
	// attempt (e.g. "/static//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning so a traversal attempt is
	// never "cleaned away" into a different, allowed path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}

// exists reports whether rel names a regular file under the directory.
func (s *staticFiles) exists(rel string) bool {
	f, err := s.fs.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// serve delivers the file via http.ServeContent semantics.
func (s *staticFiles) serve(w http.ResponseWriter, r *http.Request, rel string) {
	http.ServeFile(w, r, filepath.Join(s.dir, filepath.FromSlash(rel)))
}
