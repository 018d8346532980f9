// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.astrophena.name/servecors/internal/cli"
	"go.astrophena.name/servecors/internal/logger"
	"go.astrophena.name/servecors/internal/testutil"
)

func TestListenAndServeConfig(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		c       *ListenAndServeConfig
		wantErr error
	}{
		"no Addr": {
			c: &ListenAndServeConfig{
				Addr:    "",
				Handler: http.NotFoundHandler(),
			},
			wantErr: errNoAddr,
		},
		"nil Handler": {
			c: &ListenAndServeConfig{
				Addr:    ":3000",
				Handler: nil,
			},
			wantErr: errNilHandler,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := ListenAndServe(context.Background(), tc.c)

			// Don't use && because we want to trap all cases where err is nil.
			if err == nil {
				if tc.wantErr != nil {
					t.Fatalf("must fail with error: %v", tc.wantErr)
				}
			}

			if err != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error: %v", err)
			}
		})
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) logf(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(&b.buf, format+"\n", args...)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestListenAndServe(t *testing.T) {
	t.Parallel()

	var (
		logs  syncBuffer
		wg    sync.WaitGroup
		ready = make(chan net.Addr, 1)
		errCh = make(chan error, 1)
	)
	env := &cli.Env{Stderr: io.Discard}
	ctx, cancel := context.WithCancel(cli.WithEnv(context.Background(), env))
	defer cancel()

	var sawEnv atomic.Bool
	mux := http.NewServeMux()
	mux.Handle("/", CORS(FileServer(siteDir(t))))
	mux.HandleFunc("/env", func(w http.ResponseWriter, r *http.Request) {
		sawEnv.Store(cli.GetEnv(r.Context()) == env)
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- ListenAndServe(ctx, &ListenAndServeConfig{
			Addr:    "127.0.0.1:0",
			Handler: mux,
			Logf:    logs.logf,
			Ready:   func(addr net.Addr) { ready <- addr },
		})
	}()

	// Wait until the server is ready.
	var addr net.Addr
	select {
	case err := <-errCh:
		t.Fatalf("Test server crashed during startup: %v", err)
	case addr = <-ready:
	}

	// Make some HTTP requests.
	urls := []struct {
		method     string
		url        string
		wantStatus int
	}{
		{method: http.MethodGet, url: "/hello.txt", wantStatus: http.StatusOK},
		{method: http.MethodGet, url: "/missing.txt", wantStatus: http.StatusNotFound},
		{method: http.MethodOptions, url: "/whatever", wantStatus: http.StatusOK},
		{method: http.MethodGet, url: "/env", wantStatus: http.StatusOK},
	}
	for _, u := range urls {
		req, err := http.NewRequest(u.method, "http://"+addr.String()+u.url, nil)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != u.wantStatus {
			t.Fatalf("%s %s: want status code %d, got %d", u.method, u.url, u.wantStatus, resp.StatusCode)
		}
		if u.url != "/env" {
			assertCORS(t, resp.Header)
		}
	}
	testutil.AssertEqual(t, sawEnv.Load(), true)

	// Try to gracefully shutdown the server.
	cancel()
	wg.Wait()
	if err := <-errCh; err != nil {
		t.Fatalf("Test server failed to shut down: %v", err)
	}
	testutil.AssertEqual(t, strings.Count(logs.String(), "Shutting down server..."), 1)

	// The listener must be released.
	l, err := net.Listen("tcp", addr.String())
	if err != nil {
		t.Fatalf("listener was not released: %v", err)
	}
	l.Close()
}

func TestListenAndServeBindError(t *testing.T) {
	t.Parallel()

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer busy.Close()

	var readyCalled bool
	err = ListenAndServe(context.Background(), &ListenAndServeConfig{
		Addr:    busy.Addr().String(),
		Handler: http.NotFoundHandler(),
		Logf:    logger.Discard,
		Ready:   func(net.Addr) { readyCalled = true },
	})

	var be *BindError
	if !errors.As(err, &be) {
		t.Fatalf("want *BindError, got %T: %v", err, err)
	}
	testutil.AssertEqual(t, be.Addr, busy.Addr().String())
	testutil.AssertEqual(t, readyCalled, false)
}

func TestListenAndServeAbandonsSlowRequests(t *testing.T) {
	t.Parallel()

	var (
		ready    = make(chan net.Addr, 1)
		started  = make(chan struct{})
		release  = make(chan struct{})
		errCh    = make(chan error, 1)
		reqErrCh = make(chan error, 1)
	)
	defer close(release)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		errCh <- ListenAndServe(ctx, &ListenAndServeConfig{
			Addr: "127.0.0.1:0",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				close(started)
				<-release
			}),
			Logf:            logger.Discard,
			Ready:           func(addr net.Addr) { ready <- addr },
			ShutdownTimeout: 50 * time.Millisecond,
		})
	}()
	addr := <-ready

	go func() {
		resp, err := http.Get("http://" + addr.String() + "/slow")
		if err == nil {
			resp.Body.Close()
		}
		reqErrCh <- err
	}()
	<-started

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("shutdown must succeed after abandoning requests, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after shutdown timeout")
	}
	if err := <-reqErrCh; err == nil {
		t.Fatal("abandoned request must fail on the client side")
	}
}
