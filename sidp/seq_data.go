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

import (
	"github.com/pkg/errors"

	"github.com/ucodev/go-sidp/bitops"
	"github.com/ucodev/go-sidp/layer/compress"
	"github.com/ucodev/go-sidp/layer/encrypt"
	"github.com/ucodev/go-sidp/layer/session"
)

// negotiatedCompressType maps the single negotiated compressor bit to its
// wire tag, walking the same ladder as the negotiation selection.
func (c *Conn) negotiatedCompressType() (uint16, error) {
	switch {
	case bitops.Test(c.negotiateFlags, SupportCompressLZO):
		return compress.TypeLZO, nil
	case bitops.Test(c.negotiateFlags, SupportCompressSnappy):
		return compress.TypeSnappy, nil
	case bitops.Test(c.negotiateFlags, SupportCompressZlib):
		return compress.TypeZlib, nil
	}
	return 0, errors.Wrap(ErrState, "data: no negotiated compressor")
}

func (c *Conn) negotiatedCipherType() (uint16, error) {
	switch {
	case bitops.Test(c.negotiateFlags, SupportCipherXSalsa20):
		return encrypt.TypeXSalsa20, nil
	case bitops.Test(c.negotiateFlags, SupportCipherChaCha20):
		return encrypt.TypeChaCha20, nil
	case bitops.Test(c.negotiateFlags, SupportCipherXChaCha20):
		return encrypt.TypeXChaCha20, nil
	case bitops.Test(c.negotiateFlags, SupportCipherAES256):
		return encrypt.TypeAES256, nil
	}
	return 0, errors.Wrap(ErrState, "data: no negotiated cipher")
}

func (c *Conn) negotiatedEncapType() (uint16, error) {
	if bitops.Test(c.negotiateFlags, SupportEncapDefault) {
		return session.TypeDefault, nil
	}
	return 0, errors.Wrap(ErrState, "data: no negotiated encapsulation")
}

func (c *Conn) checkDataPreconditions() error {
	if !bitops.Test(c.statusFlags, StatusInitiated) {
		return errors.Wrap(ErrState, "data: connection not initiated")
	}
	if !bitops.Test(c.statusFlags, StatusAuthenticated) {
		return errors.Wrap(ErrState, "data: connection not authenticated")
	}
	if !bitops.Test(c.statusFlags, StatusNegotiated) {
		return errors.Wrap(ErrState, "data: connection not negotiated")
	}
	return nil
}

// Send dispatches one application message with the negotiated algorithms.
// All three phase bits must be set.
func (c *Conn) Send(data []byte) error {
	if err := c.checkDataPreconditions(); err != nil {
		return err
	}

	encapType, err := c.negotiatedEncapType()
	if err != nil {
		return err
	}
	cipherType, err := c.negotiatedCipherType()
	if err != nil {
		return err
	}
	compressType, err := c.negotiatedCompressType()
	if err != nil {
		return err
	}

	opt := Options{
		SessionType:  encapType,
		CipherType:   cipherType,
		CompressType: compressType,
		MsgType:      MsgTypeData,
		Key:          c.key,
	}
	pkt := Packet{SrcDev: c.sdev, DstDev: c.ddev, SessionID: c.sid, Msg: data}

	_, err = c.SendPacket(&pkt, &opt)
	return err
}

// Recv receives one application message and returns the decoded bytes,
// owned by the caller. All three phase bits must be set.
func (c *Conn) Recv() ([]byte, error) {
	if err := c.checkDataPreconditions(); err != nil {
		return nil, err
	}

	opt := Options{MsgType: MsgTypeData, Key: c.key}
	var pkt Packet

	if _, err := c.RecvPacket(&pkt, &opt); err != nil {
		return nil, err
	}
	return pkt.Msg, nil
}
