// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"go.astrophena.name/servecors/internal/testutil"
)

func send(t testing.TB, h http.Handler, method, path string, wantStatus int) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := rec.Result()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: want response code %d, got %d", method, path, wantStatus, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(b)
}

// siteDir extracts testdata/site.txtar and returns the directory to serve.
func siteDir(t testing.TB) string {
	return filepath.Join(testutil.TxtarDir(t, filepath.Join("testdata", "site.txtar")), "root")
}

func assertCORS(t testing.TB, h http.Header) {
	t.Helper()
	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "GET, OPTIONS",
		"Access-Control-Allow-Headers": "*",
		"Cache-Control":                "no-store, no-cache, must-revalidate, max-age=0",
	}
	for k, v := range want {
		if got := h.Values(k); len(got) != 1 || got[0] != v {
			t.Errorf("header %s: want [%q], got %q", k, v, got)
		}
	}
}
