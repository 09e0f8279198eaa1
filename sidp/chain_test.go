package sidp

import (
	"bytes"
	"net"
	"testing"

	"github.com/pkg/errors"

	"github.com/ucodev/go-sidp/layer/compress"
	"github.com/ucodev/go-sidp/layer/encrypt"
	"github.com/ucodev/go-sidp/layer/session"
)

// pipePair builds two connections joined by an in-memory stream.
func pipePair(t *testing.T) (*Conn, *Conn) {
	t.Helper()
	left, right := net.Pipe()
	a := NewConn(left, 10, 20, 1234, ConnTypeNormal)
	b := NewConn(right, 20, 10, 1234, ConnTypeNormal)
	t.Cleanup(func() {
		left.Close()
		right.Close()
	})
	return a, b
}

var cipherTypes = []uint16{
	encrypt.TypeAES256, encrypt.TypeXSalsa20, encrypt.TypeChaCha20, encrypt.TypeXChaCha20,
}

var compressTypes = []uint16{
	compress.TypeLZO, compress.TypeZlib, compress.TypeSnappy,
}

func TestDataPacketRoundTripAllAlgorithms(t *testing.T) {
	key := []byte("shared key material")
	payloads := [][]byte{
		nil,
		{0x7f},
		[]byte("hello\x00"),
		bytes.Repeat([]byte("0123456789abcdef"), 256),
	}

	for _, ct := range cipherTypes {
		for _, zt := range compressTypes {
			for _, payload := range payloads {
				sender, receiver := pipePair(t)

				opt := Options{
					SessionType:  session.TypeDefault,
					CipherType:   ct,
					CompressType: zt,
					MsgType:      MsgTypeData,
					Key:          key,
				}
				pkt := Packet{SrcDev: 10, DstDev: 20, SessionID: 1234, Msg: payload}

				sendErr := make(chan error, 1)
				go func() {
					n, err := sender.SendPacket(&pkt, &opt)
					if err == nil && n != len(payload) {
						err = errors.Errorf("SendPacket returned %d, want %d", n, len(payload))
					}
					sendErr <- err
				}()

				var rpkt Packet
				ropt := Options{Key: key}
				n, err := receiver.RecvPacket(&rpkt, &ropt)
				if err != nil {
					t.Fatalf("cipher %d compress %d len %d: RecvPacket: %v", ct, zt, len(payload), err)
				}
				if err := <-sendErr; err != nil {
					t.Fatalf("cipher %d compress %d: SendPacket: %v", ct, zt, err)
				}

				if n != len(payload) || !bytes.Equal(rpkt.Msg, payload) {
					t.Fatalf("cipher %d compress %d: round trip %d bytes, want %d", ct, zt, n, len(payload))
				}
				if rpkt.SrcDev != 10 || rpkt.DstDev != 20 || rpkt.SessionID != 1234 {
					t.Fatalf("session header fields %d/%d/%d", rpkt.SrcDev, rpkt.DstDev, rpkt.SessionID)
				}
				if ropt.CipherType != ct || ropt.CompressType != zt || ropt.MsgType != MsgTypeData {
					t.Fatalf("received options %+v", ropt)
				}
			}
		}
	}
}

func TestDataPacketMaxSize(t *testing.T) {
	sender, receiver := pipePair(t)
	key := []byte("k")
	payload := bytes.Repeat([]byte{0xee}, PktMsgMaxLen)

	opt := Options{
		SessionType:  session.TypeDefault,
		CipherType:   encrypt.TypeXSalsa20,
		CompressType: compress.TypeSnappy,
		MsgType:      MsgTypeData,
		Key:          key,
	}
	pkt := Packet{SrcDev: 1, DstDev: 2, SessionID: 3, Msg: payload}

	sendErr := make(chan error, 1)
	go func() {
		_, err := sender.SendPacket(&pkt, &opt)
		sendErr <- err
	}()

	var rpkt Packet
	ropt := Options{Key: key}
	n, err := receiver.RecvPacket(&rpkt, &ropt)
	if err != nil {
		t.Fatalf("RecvPacket: %v", err)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if n != PktMsgMaxLen || !bytes.Equal(rpkt.Msg, payload) {
		t.Fatalf("round trip %d bytes, want %d", n, PktMsgMaxLen)
	}
}

func TestSendOversizedMessage(t *testing.T) {
	sender, _ := pipePair(t)

	opt := Options{
		SessionType:  session.TypeDefault,
		CipherType:   encrypt.TypeXSalsa20,
		CompressType: compress.TypeSnappy,
		MsgType:      MsgTypeData,
		Key:          []byte("k"),
	}
	pkt := Packet{Msg: make([]byte, PktMsgMaxLen+1)}

	// must fail before any byte is written: the peer is not reading
	if _, err := sender.SendPacket(&pkt, &opt); !errors.Is(err, ErrFraming) {
		t.Fatalf("oversized send: %v, want ErrFraming", err)
	}
}

func TestControlPacketTravelsCleartext(t *testing.T) {
	sender, receiver := pipePair(t)
	body := []byte("negotiate body")

	opt := Options{SessionType: session.TypeDefault, MsgType: MsgTypeNegotiate}
	pkt := Packet{SrcDev: 7, DstDev: 8, SessionID: 9, Msg: body}

	sendErr := make(chan error, 1)
	go func() {
		_, err := sender.SendPacket(&pkt, &opt)
		sendErr <- err
	}()

	// no key on the receive side: control frames carry no encryption
	var rpkt Packet
	var ropt Options
	n, err := receiver.RecvPacket(&rpkt, &ropt)
	if err != nil {
		t.Fatalf("RecvPacket: %v", err)
	}
	if err := <-sendErr; err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	if n != len(body) || !bytes.Equal(rpkt.Msg, body) {
		t.Fatalf("control round trip %q", rpkt.Msg)
	}
	if ropt.MsgType != MsgTypeNegotiate {
		t.Fatalf("message type %d", ropt.MsgType)
	}
}

func TestSendUnknownTypesRejected(t *testing.T) {
	sender, _ := pipePair(t)

	opt := Options{SessionType: session.TypeDefault, MsgType: 99}
	if _, err := sender.SendPacket(&Packet{Msg: []byte("x")}, &opt); !errors.Is(err, ErrFraming) {
		t.Fatalf("unknown message type: %v, want ErrFraming", err)
	}

	opt = Options{SessionType: 99, MsgType: MsgTypeInit}
	if _, err := sender.SendPacket(&Packet{Msg: []byte("x")}, &opt); !errors.Is(err, ErrFraming) {
		t.Fatalf("unknown session type: %v, want ErrFraming", err)
	}

	opt = Options{SessionType: session.TypeDefault, MsgType: MsgTypeData, CipherType: 77, CompressType: compress.TypeSnappy}
	if _, err := sender.SendPacket(&Packet{Msg: []byte("x")}, &opt); !errors.Is(err, ErrFraming) {
		t.Fatalf("unknown cipher type: %v, want ErrFraming", err)
	}
}

func TestRecvRejectsOversizedHeaderWithoutBody(t *testing.T) {
	sender, receiver := pipePair(t)

	// forge a description header claiming an inflated size past the cap
	hdr := dlHeader{
		DefSize:      17,
		InfSize:      PktMsgMaxLen + 1,
		SessionType:  session.TypeDefault,
		MsgType:      MsgTypeData,
		CipherType:   encrypt.TypeAES256,
		CompressType: compress.TypeSnappy,
	}
	frame := make([]byte, dlHeaderLen)
	hdr.marshal(frame)

	go sender.RawSend(frame)

	var rpkt Packet
	var ropt Options
	if _, err := receiver.RecvPacket(&rpkt, &ropt); !errors.Is(err, ErrFraming) {
		t.Fatalf("oversized inf_size: %v, want ErrFraming", err)
	}
	// the body was never requested from the stream
	if receiver.ReadBytes() != dlHeaderLen {
		t.Fatalf("receiver consumed %d bytes, want %d", receiver.ReadBytes(), dlHeaderLen)
	}
}

func TestRecvRejectsWrongKey(t *testing.T) {
	sender, receiver := pipePair(t)

	opt := Options{
		SessionType:  session.TypeDefault,
		CipherType:   encrypt.TypeAES256,
		CompressType: compress.TypeSnappy,
		MsgType:      MsgTypeData,
		Key:          []byte("right key"),
	}
	go sender.SendPacket(&Packet{Msg: []byte("secret")}, &opt)

	var rpkt Packet
	ropt := Options{Key: []byte("wrong key")}
	if _, err := receiver.RecvPacket(&rpkt, &ropt); !errors.Is(err, ErrCodec) {
		t.Fatalf("wrong key: %v, want ErrCodec", err)
	}
}

func TestRawRoundTrip(t *testing.T) {
	sender, receiver := pipePair(t)

	opt := Options{SessionType: session.TypeDefault, MsgType: MsgTypeInit}
	body := []byte("raw forwarded record")
	go sender.SendPacket(&Packet{SrcDev: 1, DstDev: 2, SessionID: 3, Msg: body}, &opt)

	frame, err := receiver.RawRecv()
	if err != nil {
		t.Fatalf("RawRecv: %v", err)
	}
	if len(frame) != dlHeaderLen+session.DefaultHeaderLen+len(body) {
		t.Fatalf("raw frame length %d", len(frame))
	}

	// forward the opaque frame to a second hop and decode it there
	hopIn, hopOut := pipePair(t)
	go hopIn.RawSend(frame)

	var rpkt Packet
	var ropt Options
	n, err := hopOut.RecvPacket(&rpkt, &ropt)
	if err != nil {
		t.Fatalf("second hop RecvPacket: %v", err)
	}
	if n != len(body) || !bytes.Equal(rpkt.Msg, body) {
		t.Fatalf("second hop payload %q", rpkt.Msg)
	}
	if rpkt.SrcDev != 1 || rpkt.DstDev != 2 || rpkt.SessionID != 3 {
		t.Fatalf("second hop header %d/%d/%d", rpkt.SrcDev, rpkt.DstDev, rpkt.SessionID)
	}
}

func TestRecvTransportErrorOnClosedPeer(t *testing.T) {
	sender, receiver := pipePair(t)
	sender.Close()

	var rpkt Packet
	var ropt Options
	if _, err := receiver.RecvPacket(&rpkt, &ropt); !errors.Is(err, ErrTransport) {
		t.Fatalf("closed peer: %v, want ErrTransport", err)
	}
}
