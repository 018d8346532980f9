// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

const allowedMethods = "GET, HEAD, OPTIONS"

// FileServer returns a handler that serves HTTP requests with the contents of
// the directory root.
//
// GET and HEAD requests are served by [http.FileServer]: files with their
// content type inferred from the extension, directories as an index.html if
// present or as a listing of their entries. Paths that don't exist or that
// try to escape root with ".." elements are answered with 404. OPTIONS
// requests get an empty 200 response without touching the filesystem. Other
// methods are answered with 405.
//
// root is resolved on every request, so a missing root makes requests fail
// rather than FileServer.
func FileServer(root string) http.Handler {
	dir := http.Dir(root)
	return &fileHandler{dir: dir, files: http.FileServer(dir)}
}

type fileHandler struct {
	dir   http.FileSystem
	files http.Handler
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", allowedMethods)
		RespondError(w, r, fmt.Errorf("%s %w", r.Method, ErrMethodNotAllowed))
		return
	}

	if containsDotDot(r.URL.Path) {
		RespondError(w, r, fmt.Errorf("path %q escapes root: %w", r.URL.Path, ErrNotFound))
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if !isLocal(name) {
		RespondError(w, r, fmt.Errorf("path %q is not valid on this system: %w", r.URL.Path, ErrNotFound))
		return
	}
	f, err := h.dir.Open(name)
	if err != nil {
		RespondError(w, r, openError(name, err))
		return
	}
	f.Close()

	h.files.ServeHTTP(w, r)
}

func openError(name string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w", name, ErrForbidden)
	}
	return fmt.Errorf("opening %s: %w", name, err)
}

// isLocal reports whether the cleaned, slash-rooted name can be opened by
// [http.Dir], which rejects names with NUL bytes or, on Windows, reserved
// names and separators.
func isLocal(name string) bool {
	rel := name[1:]
	if rel == "" {
		rel = "."
	}
	_, err := filepath.Localize(rel)
	return err == nil
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, ent := range strings.FieldsFunc(v, isSlashRune) {
		if ent == ".." {
			return true
		}
	}
	return false
}

func isSlashRune(r rune) bool { return r == '/' || r == '\\' }
