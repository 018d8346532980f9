// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"go.astrophena.name/servecors/internal/logger"
)

// ListenAndServeConfig is used to configure the HTTP server started by
// [ListenAndServe].
//
// All fields of ListenAndServeConfig can't be modified after [ListenAndServe]
// is called.
type ListenAndServeConfig struct {
	// Addr is a network address to listen on (in the form of "host:port").
	// An empty host listens on all interfaces.
	Addr string
	// Handler is a http.Handler to serve.
	Handler http.Handler
	// Logf specifies a logger to use. If nil, log.Printf is used.
	Logf logger.Logf
	// Ready, if set, is called once the listener is bound, with its address,
	// right before connections start being accepted.
	Ready func(net.Addr)
	// ShutdownTimeout limits how long in-flight requests are given to complete
	// after the context is canceled. Requests still running after that are
	// abandoned. If zero, 5 seconds is used.
	ShutdownTimeout time.Duration
}

// BindError is returned by [ListenAndServe] when the listener can't be
// bound, for example because the address is already in use or the process
// lacks permission to use the port.
type BindError struct {
	Addr string
	Err  error
}

func (e *BindError) Error() string { return fmt.Sprintf("failed to listen on %s: %v", e.Addr, e.Err) }
func (e *BindError) Unwrap() error { return e.Err }

var (
	errNoAddr     = errors.New("c.Addr is empty")
	errNilHandler = errors.New("c.Handler is nil")
)

// ListenAndServe binds c.Addr and serves c.Handler on it until ctx is
// canceled, then gracefully shuts the server down.
//
// It returns a [*BindError] if the listener can't be bound, in which case
// c.Ready is never called. After a successful shutdown ListenAndServe returns
// nil. The listener is closed exactly once on every path out of
// ListenAndServe.
//
// Request contexts carry the values of ctx, but not its cancellation.
func ListenAndServe(ctx context.Context, c *ListenAndServeConfig) error {
	if c.Logf == nil {
		c.Logf = log.Printf
	}
	if c.Addr == "" {
		return errNoAddr
	}
	if c.Handler == nil {
		return errNilHandler
	}
	shutdownTimeout := c.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 5 * time.Second
	}

	l, err := net.Listen("tcp", c.Addr)
	if err != nil {
		return &BindError{Addr: c.Addr, Err: err}
	}

	baseCtx := context.WithoutCancel(ctx)
	s := &http.Server{
		Handler:           c.Handler,
		ErrorLog:          c.Logf.Std(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },

		// "OPTIONS *" goes to Handler like any other preflight.
		DisableGeneralOptionsHandler: true,
	}

	errCh := make(chan error, 1)
	go func() {
		// Serve takes ownership of l: both Serve returning and Shutdown
		// close it, and net/http guards against closing it twice.
		if err := s.Serve(l); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if c.Ready != nil {
		c.Ready(l.Addr())
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		c.Logf("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.Shutdown(shutdownCtx); err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			// Drop whatever is still running.
			return s.Close()
		}
	}

	return nil
}
