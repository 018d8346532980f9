// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package web is a collection of functions and types for serving a local
// directory over HTTP during development.
package web

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.astrophena.name/servecors/internal/cli"
	"go.astrophena.name/servecors/internal/util/syncx"
)

// StatusErr is a sentinel error type used to represent HTTP status code errors.
type StatusErr int

// Error implements the error interface.
// It returns a lowercase representation of the HTTP status text for the wrapped code.
func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	// ErrForbidden represents a forbidden access error (HTTP 403).
	ErrForbidden StatusErr = http.StatusForbidden
	// ErrNotFound represents a not found error (HTTP 404).
	ErrNotFound StatusErr = http.StatusNotFound
	// ErrMethodNotAllowed represents a method not allowed error (HTTP 405).
	ErrMethodNotAllowed StatusErr = http.StatusMethodNotAllowed
	// ErrInternalServerError represents an internal server error (HTTP 500).
	ErrInternalServerError StatusErr = http.StatusInternalServerError
)

var (
	//go:embed templates/error.html
	errorTemplateStr string
	errorTemplate    syncx.Lazy[*template.Template]
)

// RespondError writes an error response in HTML format to w and logs the error
// using [cli.Env.Logf] from the request context's environment if the error is
// [ErrInternalServerError].
//
// If the error is a [StatusErr] or wraps it, it extracts the HTTP status code and
// sets the response status code accordingly. Otherwise, it sets the response
// status code to [http.StatusInternalServerError].
//
// You can wrap any error with [fmt.Errorf] to set a specific HTTP status code:
//
//	// This will set the status code to 404 (Not Found).
//	web.RespondError(w, r, fmt.Errorf("file %q %w", name, web.ErrNotFound))
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	if se == ErrInternalServerError {
		cli.GetEnv(r.Context()).Logf("Error %d (%s): %v", se, http.StatusText(int(se)), err)
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(int(se))

	if r.Method == http.MethodHead {
		return
	}

	data := struct {
		StatusCode int
		StatusText string
		Path       string
	}{
		StatusCode: int(se),
		StatusText: http.StatusText(int(se)),
		Path:       r.URL.Path,
	}

	tpl, err := errorTemplate.GetErr(func() (*template.Template, error) {
		return template.New("error").Parse(errorTemplateStr)
	})
	var buf bytes.Buffer
	if err == nil {
		err = tpl.Execute(&buf, data)
	}
	if err != nil {
		// Fallback, if template parsing or execution fails.
		fmt.Fprintf(w, "%d: %s\n", data.StatusCode, data.StatusText)
		return
	}
	buf.WriteTo(w)
}
