// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logger defines a type for writing to logs.
package logger

import "log"

// Logf is the basic logger type: a printf-like func. Like [log.Printf], the
// format need not end in a newline. Logf functions must be safe for concurrent
// use.
type Logf func(format string, args ...any)

// Write implements the [io.Writer] interface, so a Logf can back a
// [log.Logger], such as [net/http.Server.ErrorLog].
func (f Logf) Write(p []byte) (n int, err error) {
	f("%s", p)
	return len(p), nil
}

// Discard is a Logf that throws everything away.
func Discard(format string, args ...any) {}

// Std returns a [log.Logger] that writes to f without prefix or flags.
func (f Logf) Std() *log.Logger { return log.New(f, "", 0) }
