package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"sync"
)

// AssetsWithCache serves fsys with long-lived cache headers and weak ETags.
// ETags are computed on first request of each file; devMode disables both.
func AssetsWithCache(fsys fs.FS, devMode bool) http.Handler {
	files := http.FileServer(http.FS(fsys))
	var etags sync.Map
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if devMode {
			w.Header().Set("Cache-Control", "no-store")
			files.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Cache-Control", "public, max-age=604800, stale-while-revalidate=86400")
		name := strings.TrimPrefix(r.URL.Path, "/")
		et, ok := etags.Load(name)
		if !ok {
			if computed, err := fileETag(fsys, name); err == nil {
				et, _ = etags.LoadOrStore(name, computed)
			}
		}
		if tag, _ := et.(string); tag != "" {
			w.Header().Set("ETag", tag)
			if r.Header.Get("If-None-Match") == tag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

func fileETag(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`, nil
}
