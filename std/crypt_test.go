package std

import (
	"testing"

	"github.com/ucodev/go-sidp/sidp"
)

func TestParseSupportFlags(t *testing.T) {
	flags, names := ParseSupportFlags("xsalsa20,snappy")
	want := uint32(1<<sidp.SupportCipherXSalsa20 | 1<<sidp.SupportCompressSnappy | 1<<sidp.SupportEncapDefault)
	if flags != want {
		t.Fatalf("flags %#x, want %#x", flags, want)
	}
	if names != "xsalsa20,snappy" {
		t.Fatalf("effective names %q", names)
	}
}

func TestParseSupportFlagsAll(t *testing.T) {
	flags, _ := ParseSupportFlags("all")
	empty, _ := ParseSupportFlags("")
	if flags != empty {
		t.Fatalf("all (%#x) and empty (%#x) specs disagree", flags, empty)
	}
	for name, bit := range supportBits {
		if flags&(1<<bit) == 0 {
			t.Fatalf("%q missing from full support set", name)
		}
	}
	if flags&(1<<sidp.SupportEncapDefault) == 0 {
		t.Fatal("default encapsulation missing")
	}
}

func TestParseSupportFlagsSkipsUnknown(t *testing.T) {
	flags, names := ParseSupportFlags("zlib,rot13")
	want := uint32(1<<sidp.SupportCompressZlib | 1<<sidp.SupportEncapDefault)
	if flags != want {
		t.Fatalf("flags %#x, want %#x", flags, want)
	}
	if names != "zlib" {
		t.Fatalf("effective names %q", names)
	}
}
