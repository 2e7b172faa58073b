package handler

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const apiOnlyBanner = "API Server Running. Access frontend separately."

// mountClient serves the built web client from dir. Unknown paths fall back to
// index.html so client-side routes survive a reload. Without a client build
// the root answers with a plain banner.
func mountClient(r chi.Router, dir string, logger *zap.Logger) {
	if dir == "" || !isDir(dir) {
		if dir != "" {
			logger.Info("client build not found, running in API-only mode", zap.String("dir", dir))
		}
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(apiOnlyBanner))
		})
		return
	}

	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			http.NotFound(w, req)
			return
		}

		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+req.URL.Path)))
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			files.ServeHTTP(w, req)
			return
		}

		if _, err := os.Stat(index); err != nil {
			http.Error(w, "Client build not found. If this is a split deployment, access the frontend separately.", http.StatusNotFound)
			return
		}
		http.ServeFile(w, req, index)
	})
}

func isDir(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
