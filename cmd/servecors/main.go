// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"

	"go.astrophena.name/servecors/internal/cli"
	"go.astrophena.name/servecors/internal/web"
)

const (
	defaultPort = 8000
	defaultDir  = "public"
)

func main() { cli.Main(newServer()) }

func newServer() *server {
	return &server{port: defaultPort, dir: defaultDir}
}

type server struct {
	// configuration
	port portFlag
	dir  string

	// used in tests
	noServerStart bool
	ready         func(net.Addr)
}

func (s *server) Flags(fs *flag.FlagSet) {
	fs.Var(&s.port, "port", "Listen on `port`.")
	fs.Var(&s.port, "p", "Shorthand for -`port`.")
	fs.StringVar(&s.dir, "dir", s.dir, "Serve files from `dir`.")
	fs.StringVar(&s.dir, "d", s.dir, "Shorthand for -`dir`.")
}

func (s *server) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %q", cli.ErrInvalidArgs, env.Args)
	}

	if s.noServerStart {
		return nil
	}

	return web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Addr:    net.JoinHostPort("", s.port.String()),
		Handler: web.CORS(web.FileServer(s.dir)),
		Logf:    env.Logf,
		Ready: func(addr net.Addr) {
			env.Logf("Serving '%s' at http://localhost:%d with CORS enabled", s.dir, s.port)
			if s.ready != nil {
				s.ready(addr)
			}
		},
	})
}

// portFlag is a TCP port number that can be set from a flag.
type portFlag int

var errPortRange = errors.New("port must be between 1 and 65535")

func (p *portFlag) String() string { return strconv.Itoa(int(*p)) }

func (p *portFlag) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("not a number")
	}
	if n < 1 || n > 65535 {
		return errPortRange
	}
	*p = portFlag(n)
	return nil
}
