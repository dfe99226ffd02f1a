package api

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// mountStatic serves the site's images directory and its index page. Missing
// assets are logged once and leave the routes answering 404.
func (s *Server) mountStatic(r chi.Router) {
	if dir := s.opts.ImagesDir; dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			s.logger.Warn("images directory unavailable", zap.String("dir", dir))
		}
		r.Handle("/images/*", http.StripPrefix("/images/", noDirListing(http.FileServer(http.Dir(dir)))))
	}

	if index := s.opts.IndexFile; index != "" {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			if _, err := os.Stat(index); err != nil {
				writeError(w, http.StatusNotFound, codeNotFound, "not found")
				return
			}
			http.ServeFile(w, req, index)
		})
	}
}

// noDirListing answers 404 for directory paths instead of an index listing.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}
