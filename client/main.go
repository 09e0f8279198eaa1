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

	"github.com/urfave/cli"
	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/xtaci/smux"

	"github.com/ucodev/go-sidp/sidp"
	"github.com/ucodev/go-sidp/std"
)

// VERSION is injected by buildflags
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		// add more log flags for debugging
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	myApp := cli.NewApp()
	myApp.Name = "sidp"
	myApp.Usage = "client (initiator)"
	myApp.Version = VERSION
	myApp.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "remoteaddr, r",
			Value: "127.0.0.1:6767",
			Usage: "server address",
		},
		cli.StringFlag{
			Name:  "transport",
			Value: "tcp",
			Usage: "transport to carry the protocol: tcp, kcp",
		},
		cli.StringFlag{
			Name:   "user, u",
			Value:  "user",
			Usage:  "username for SRP authentication",
			EnvVar: "SIDP_USER",
		},
		cli.StringFlag{
			Name:   "pass, p",
			Value:  "",
			Usage:  "password for SRP authentication",
			EnvVar: "SIDP_PASS",
		},
		cli.UintFlag{
			Name:  "sdev",
			Value: 10,
			Usage: "local device id",
		},
		cli.UintFlag{
			Name:  "ddev",
			Value: 20,
			Usage: "remote device id",
		},
		cli.UintFlag{
			Name:  "sid",
			Value: 1234,
			Usage: "session id",
		},
		cli.StringFlag{
			Name:  "conntype",
			Value: "normal",
			Usage: "connection type: normal, routing, persistent",
		},
		cli.StringFlag{
			Name:  "support",
			Value: "all",
			Usage: "algorithms to offer, eg: xsalsa20,chacha20,lzo,snappy (see negotiation priorities)",
		},
		cli.StringFlag{
			Name:  "msg",
			Value: "hello",
			Usage: "message to send; the server echo is printed",
		},
		cli.IntFlag{
			Name:  "keepalive",
			Value: 10, // smux keepalive interval in seconds
			Usage: "seconds between transport heartbeats (kcp only)",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "specify a log file to output, default goes to stderr",
		},
	}
	myApp.Action = func(c *cli.Context) error {
		if c.String("log") != "" {
			f, err := os.OpenFile(c.String("log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
			checkError(err)
			defer f.Close()
			log.SetOutput(f)
		}

		ctype, err := parseConnType(c.String("conntype"))
		checkError(err)

		support, effective := std.ParseSupportFlags(c.String("support"))

		log.Println("version:", VERSION)
		log.Println("remote address:", c.String("remoteaddr"))
		log.Println("transport:", c.String("transport"))
		log.Println("offering:", effective)

		stream, err := dial(c.String("transport"), c.String("remoteaddr"), c.Int("keepalive"))
		checkError(err)

		conn := sidp.NewConn(stream, uint32(c.Uint("sdev")), uint32(c.Uint("ddev")), uint32(c.Uint("sid")), ctype)
		conn.SetSupportFlags(support)
		defer conn.Close()

		checkError(conn.InitUser())
		log.Println("initiated: session", conn.Sid())

		checkError(conn.AuthUser(c.String("user"), []byte(c.String("pass"))))
		log.Println("authenticated as:", conn.User())

		checkError(conn.NegotiateUser())
		log.Printf("negotiated: flags %#x", conn.NegotiateFlags())

		checkError(conn.Send([]byte(c.String("msg"))))

		echo, err := conn.Recv()
		checkError(err)
		log.Printf("echo: %q", echo)

		return nil
	}
	myApp.Run(os.Args)
}

// dial opens the stream carrying the protocol. The KCP transport opens a
// new KCP session and carries the protocol on one smux stream over it.
func dial(transport, remote string, keepalive int) (io.ReadWriteCloser, error) {
	switch transport {
	case "kcp":
		conn, err := kcp.DialWithOptions(remote, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		cfg, err := std.BuildSmuxConfig(keepalive)
		if err != nil {
			return nil, err
		}
		session, err := smux.Client(conn, cfg)
		if err != nil {
			return nil, err
		}
		return session.OpenStream()
	default:
		return net.Dial("tcp", remote)
	}
}

func parseConnType(name string) (sidp.ConnType, error) {
	switch name {
	case "normal":
		return sidp.ConnTypeNormal, nil
	case "routing":
		return sidp.ConnTypeRouting, nil
	case "persistent":
		return sidp.ConnTypePersistent, nil
	}
	return sidp.ConnTypeNone, cli.NewExitError("unknown connection type: "+name, 1)
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(-1)
	}
}
