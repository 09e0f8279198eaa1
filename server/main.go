// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package main

import (
	"io"
	"log"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"

	"github.com/ucodev/go-sidp/sidp"
	"github.com/ucodev/go-sidp/std"
)

// VERSION is injected by buildflags
var VERSION = "SELFBUILD"

// connTracker keeps the live connections for the stats logger.
type connTracker struct {
	sync.Mutex
	conns map[*sidp.Conn]struct{}
}

func (t *connTracker) add(c *sidp.Conn) {
	t.Lock()
	defer t.Unlock()
	if t.conns == nil {
		t.conns = make(map[*sidp.Conn]struct{})
	}
	t.conns[c] = struct{}{}
}

func (t *connTracker) remove(c *sidp.Conn) {
	t.Lock()
	defer t.Unlock()
	delete(t.conns, c)
}

func (t *connTracker) snapshot() []*sidp.Conn {
	t.Lock()
	defer t.Unlock()
	out := make([]*sidp.Conn, 0, len(t.conns))
	for c := range t.conns {
		out = append(out, c)
	}
	return out
}

func main() {
	if VERSION == "SELFBUILD" {
		// add more log flags for debugging
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "sidp"
	myApp.Usage = "server (responder)"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "listen, l",
			Value: ":6767",
			Usage: "server listen address",
		},
		cli.StringFlag{
			Name:  "transport",
			Value: "tcp",
			Usage: "transport to carry the protocol: tcp, kcp",
		},
		cli.UintFlag{
			Name:  "sdev",
			Value: 20,
			Usage: "local device id",
		},
		cli.StringSliceFlag{
			Name:  "cred",
			Usage: "user:password pair accepted for SRP authentication, repeatable",
		},
		cli.StringFlag{
			Name:  "support",
			Value: "all",
			Usage: "algorithms to offer, eg: xsalsa20,chacha20,lzo,snappy",
		},
		cli.IntFlag{
			Name:  "keepalive",
			Value: 10, // smux keepalive interval in seconds
			Usage: "seconds between transport heartbeats (kcp only)",
		},
		cli.StringFlag{
			Name:  "statslog",
			Value: "",
			Usage: "collect connection statistics to file, aware of timeformat in golang, like: ./stats-20060102.log",
		},
		cli.IntFlag{
			Name:  "statsperiod",
			Value: 60,
			Usage: "statistics collect period, in seconds",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
		cli.BoolFlag{
			Name:  "quiet",
			Usage: "to suppress the connection open/close messages",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		if c.String("log") != "" {
			f, err := os.OpenFile(c.String("log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			checkError(err)
			defer f.Close()
			log.SetOutput(f)
		}

		creds, err := parseCredentials(c.StringSlice("cred"))
		checkError(err)

		support, effective := std.ParseSupportFlags(c.String("support"))

		log.Println("version:", VERSION)
		log.Println("listening on:", c.String("listen"))
		log.Println("transport:", c.String("transport"))
		log.Println("offering:", effective)
		log.Println("statslog:", c.String("statslog"))

		tracker := &connTracker{}
		go std.StatsLogger(c.String("statslog"), c.Int("statsperiod"), tracker.snapshot)

		srv := &server{
			sdev:    uint32(c.Uint("sdev")),
			support: support,
			creds:   creds,
			tracker: tracker,
			quiet:   c.Bool("quiet"),
		}

		switch c.String("transport") {
		case "kcp":
			return srv.listenKCP(c.String("listen"), c.Int("keepalive"))
		default:
			return srv.listenTCP(c.String("listen"))
		}
	}
	myApp.Run(os.Args)
}

type server struct {
	sdev    uint32
	support uint32
	creds   map[string][]byte
	tracker *connTracker
	quiet   bool
}

func (s *server) listenTCP(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("%+v", err)
			continue
		}
		go s.handle(conn)
	}
}

// listenKCP accepts KCP conversations and serves one protocol connection
// per smux stream.
func (s *server) listenKCP(addr string, keepalive int) error {
	listener, err := kcp.ListenWithOptions(addr, nil, 0, 0)
	if err != nil {
		return err
	}
	cfg, err := std.BuildSmuxConfig(keepalive)
	if err != nil {
		return err
	}
	for {
		conn, err := listener.AcceptKCP()
		if err != nil {
			log.Printf("%+v", err)
			continue
		}
		go func(conn *kcp.UDPSession) {
			session, err := smux.Server(conn, cfg)
			if err != nil {
				log.Printf("%+v", err)
				conn.Close()
				return
			}
			defer session.Close()
			for {
				stream, err := session.AcceptStream()
				if err != nil {
					return
				}
				go s.handle(stream)
			}
		}(conn)
	}
}

// handle walks one connection through the four phases and then echoes every
// data message back to the sender.
func (s *server) handle(stream io.ReadWriteCloser) {
	conn := sidp.NewConn(stream, s.sdev, 0, 0, sidp.ConnTypeNone)
	conn.SetSupportFlags(s.support)

	s.tracker.add(conn)
	defer s.tracker.remove(conn)
	defer conn.Close()

	if err := conn.InitHost(); err != nil {
		log.Printf("init: %+v", err)
		return
	}
	if !s.quiet {
		log.Println("connection from device:", conn.Ddev(), "session:", conn.Sid())
	}

	if err := conn.AuthHostLookup(s.lookup); err != nil {
		log.Printf("auth: %+v", err)
		return
	}
	if err := conn.NegotiateHost(); err != nil {
		log.Printf("negotiation: %+v", err)
		return
	}

	for {
		msg, err := conn.Recv()
		if err != nil {
			if !s.quiet {
				log.Println("connection closed, device:", conn.Ddev())
			}
			return
		}
		if err := conn.Send(msg); err != nil {
			log.Printf("echo: %+v", err)
			return
		}
	}
}

func (s *server) lookup(username string) ([]byte, error) {
	if pass, ok := s.creds[username]; ok {
		return pass, nil
	}
	return nil, errors.Errorf("unknown user %q", username)
}

func parseCredentials(pairs []string) (map[string][]byte, error) {
	creds := make(map[string][]byte)
	for _, pair := range pairs {
		idx := strings.IndexByte(pair, ':')
		if idx <= 0 {
			return nil, errors.Errorf("malformed credential %q, want user:password", pair)
		}
		creds[pair[:idx]] = []byte(pair[idx+1:])
	}
	if len(creds) == 0 {
		return nil, errors.New("no credentials configured, pass at least one -cred user:password")
	}
	return creds, nil
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}
