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

// Package std provides shared helpers for the example programs.
package std

import (
	"log"
	"sort"
	"strings"

	"github.com/ucodev/go-sidp/sidp"
)

// supportBits maps algorithm names to their SIDP support-flag bit positions.
// Using a map simplifies the code and makes adding new algorithms easier.
var supportBits = map[string]uint{
	"aes-256":   sidp.SupportCipherAES256,
	"xsalsa20":  sidp.SupportCipherXSalsa20,
	"chacha20":  sidp.SupportCipherChaCha20,
	"xchacha20": sidp.SupportCipherXChaCha20,
	"lzo":       sidp.SupportCompressLZO,
	"zlib":      sidp.SupportCompressZlib,
	"snappy":    sidp.SupportCompressSnappy,
}

// ParseSupportFlags translates a comma separated list of algorithm names
// into a support bitmap. Unknown names are logged and skipped; an empty or
// "all" spec offers everything. The DEFAULT encapsulation is always
// included. It also reports the effective names so callers can log the
// final choice.
func ParseSupportFlags(spec string) (uint32, string) {
	flags := uint32(1 << sidp.SupportEncapDefault)

	if spec == "" || spec == "all" {
		names := make([]string, 0, len(supportBits))
		for name, bit := range supportBits {
			flags |= 1 << bit
			names = append(names, name)
		}
		sort.Strings(names)
		return flags, strings.Join(names, ",")
	}

	var effective []string
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		bit, ok := supportBits[name]
		if !ok {
			log.Printf("support: unknown algorithm %q, skipping", name)
			continue
		}
		flags |= 1 << bit
		effective = append(effective, name)
	}
	return flags, strings.Join(effective, ",")
}
