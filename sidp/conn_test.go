package sidp

import (
	"bytes"
	"net"
	"testing"

	"github.com/ucodev/go-sidp/layer/session"
)

func TestNewConnAccessors(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	c := NewConn(left, 10, 20, 1234, ConnTypeNormal)
	if c.Sdev() != 10 || c.Ddev() != 20 || c.Sid() != 1234 || c.Type() != ConnTypeNormal {
		t.Fatalf("accessors: %d/%d/%d/%d", c.Sdev(), c.Ddev(), c.Sid(), c.Type())
	}
	if c.Initiated() || c.Authenticated() || c.Negotiated() {
		t.Fatal("fresh connection carries status bits")
	}
	if c.ReadBytes() != 0 || c.WriteBytes() != 0 {
		t.Fatal("fresh connection carries statistics")
	}
	if !c.LastRead().IsZero() || !c.LastWrite().IsZero() {
		t.Fatal("fresh connection carries timestamps")
	}
}

func TestSetKeyTruncates(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	c := NewConn(left, 1, 2, 3, ConnTypeNormal)

	c.SetKey([]byte("short"))
	if !bytes.Equal(c.key, []byte("short")) {
		t.Fatalf("key %q", c.key)
	}

	long := bytes.Repeat([]byte{0xaa}, KeyMaxLen+10)
	c.SetKey(long)
	if len(c.key) != KeyMaxLen || !bytes.Equal(c.key, long[:KeyMaxLen]) {
		t.Fatalf("key not truncated to %d: %d", KeyMaxLen, len(c.key))
	}
}

func TestSetSupport(t *testing.T) {
	left, right := net.Pipe()
	defer left.Close()
	defer right.Close()

	c := NewConn(left, 1, 2, 3, ConnTypeNormal)
	c.SetSupport(SupportCipherAES256)
	c.SetSupport(SupportCompressSnappy)
	if c.SupportFlags() != 1<<SupportCipherAES256|1<<SupportCompressSnappy {
		t.Fatalf("support flags %#x", c.SupportFlags())
	}

	c.SetSupportFlags(0xff)
	if c.SupportFlags() != 0xff {
		t.Fatalf("support flags %#x", c.SupportFlags())
	}
}

func TestCloseIdempotent(t *testing.T) {
	left, right := net.Pipe()
	defer right.Close()

	c := NewConn(left, 10, 20, 30, ConnTypePersistent)
	c.SetKey([]byte("key material"))
	c.SetSupportFlags(0xff)

	if err := c.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if c.Type() != ConnTypeNone {
		t.Fatalf("type %d after close, want ConnTypeNone", c.Type())
	}
	if c.Sdev() != 0 || c.Ddev() != 0 || c.Sid() != 0 {
		t.Fatal("identifiers survive close")
	}
	if c.SupportFlags() != 0 || c.NegotiateFlags() != 0 {
		t.Fatal("flags survive close")
	}
	if c.key != nil {
		t.Fatal("key material survives close")
	}

	// repeated close passes the underlying result through and keeps NONE
	c.Close()
	if c.Type() != ConnTypeNone {
		t.Fatalf("type %d after second close", c.Type())
	}
}

func TestStatisticsAccounting(t *testing.T) {
	sender, receiver := pipePair(t)

	opt := Options{SessionType: session.TypeDefault, MsgType: MsgTypeInit}
	body := []byte("statistics probe")
	wire := dlHeaderLen + session.DefaultHeaderLen + len(body)

	sendDone := make(chan error, 1)
	go func() {
		_, err := sender.SendPacket(&Packet{Msg: body}, &opt)
		sendDone <- err
	}()

	var rpkt Packet
	var ropt Options
	if _, err := receiver.RecvPacket(&rpkt, &ropt); err != nil {
		t.Fatalf("RecvPacket: %v", err)
	}
	if err := <-sendDone; err != nil {
		t.Fatalf("SendPacket: %v", err)
	}

	if got := receiver.ReadBytes(); got != uint64(wire) {
		t.Fatalf("ReadBytes %d, want %d", got, wire)
	}
	if got := sender.WriteBytes(); got != uint64(wire) {
		t.Fatalf("WriteBytes %d, want %d", got, wire)
	}
	if receiver.LastRead().IsZero() || sender.LastWrite().IsZero() {
		t.Fatal("timestamps not updated")
	}
}
