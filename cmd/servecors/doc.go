// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Servecors is a static file server with CORS enabled.

It serves a local directory over HTTP and allows any origin to fetch from it,
so front-end assets can be loaded by pages hosted elsewhere during local
development. Every response, errors included, carries permissive CORS headers
and disables caching. Preflight OPTIONS requests are answered with an empty
200 response.

# Usage

	$ servecors [-p port] [-d dir]

Flags may be spelled with one or two dashes, so --port and --dir work too.

Press Ctrl+C to stop the server.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/servecors/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
