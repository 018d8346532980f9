// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// corsHeaders are the headers [CORS] puts on every response.
var corsHeaders = []struct{ Key, Value string }{
	{"Access-Control-Allow-Origin", "*"},
	{"Access-Control-Allow-Methods", "GET, OPTIONS"},
	{"Access-Control-Allow-Headers", "*"},
	{"Cache-Control", "no-store, no-cache, must-revalidate, max-age=0"},
}

// CORS wraps next so that every response it produces, including error
// responses, carries permissive CORS headers and disables caching.
//
// The headers are set when the response is committed: on the first call to
// WriteHeader, Write, ReadFrom or Flush, or after next returns if it wrote
// nothing. Headers set by next are kept, except that the CORS headers replace
// headers with the same names.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var committed bool
		commit := func() {
			if committed {
				return
			}
			committed = true
			h := w.Header()
			for _, ch := range corsHeaders {
				h.Set(ch.Key, ch.Value)
			}
		}

		ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
			WriteHeader: func(writeHeader httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					// Informational responses don't commit the final header.
					if code >= 200 {
						commit()
					}
					writeHeader(code)
				}
			},
			Write: func(write httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					commit()
					return write(b)
				}
			},
			ReadFrom: func(readFrom httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
				return func(src io.Reader) (int64, error) {
					commit()
					return readFrom(src)
				}
			},
			Flush: func(flush httpsnoop.FlushFunc) httpsnoop.FlushFunc {
				return func() {
					commit()
					flush()
				}
			},
		})

		next.ServeHTTP(ww, r)
		commit()
	})
}
