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

package sidp

import "github.com/pkg/errors"

// Error kinds. Every failure returned by this package wraps exactly one of
// these sentinels; classify with errors.Is. A transport error mid-frame
// leaves the wire in an undefined state — the caller must close the
// connection and not attempt further sequences.
var (
	// ErrTransport: the underlying stream read/write failed or came up short.
	ErrTransport = errors.New("sidp: transport failure")

	// ErrFraming: header fields out of range, length mismatches, unknown
	// algorithm tags or message types.
	ErrFraming = errors.New("sidp: malformed frame")

	// ErrCodec: a compression or encryption backend failed, or the decoded
	// length disagrees with the description header.
	ErrCodec = errors.New("sidp: codec failure")

	// ErrState: a sequence was invoked without its preconditions, init
	// validation failed, or negotiation found no common algorithm.
	ErrState = errors.New("sidp: invalid connection state")

	// ErrAuth: the SRP safety check or final verification rejected the peer.
	ErrAuth = errors.New("sidp: authentication failure")
)
