// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package pgzip

import "bytes"

// headerBuilder accumulates the bytes of a gzip header or trailer before a
// single flush to the output writer.
type headerBuilder struct {
	buf bytes.Buffer
}

func (b *headerBuilder) byte(v byte) *headerBuilder {
	b.buf.WriteByte(v)
	return b
}

func (b *headerBuilder) uint32le(v uint32) *headerBuilder {
	b.buf.WriteByte(byte(v))
	b.buf.WriteByte(byte(v >> 8))
	b.buf.WriteByte(byte(v >> 16))
	b.buf.WriteByte(byte(v >> 24))
	return b
}

func (b *headerBuilder) bytes(p []byte) *headerBuilder {
	b.buf.Write(p)
	return b
}

func (b *headerBuilder) bytesNUL(p []byte) *headerBuilder {
	b.buf.Write(p)
	b.buf.WriteByte(0)
	return b
}

const (
	gzipMagic1    = 0x1f
	gzipMagic2    = 0x8b
	gzipDeflate   = 8
	gzipFlagName  = 1 << 3
	gzipOSUnix    = 3
	xflagBest     = 2 // level 9
	xflagFastest  = 4 // level 1
	xflagDefault  = 0
)

// buildHeader renders the 10-byte fixed gzip header plus the optional
// NUL-terminated original filename.
func buildHeader(name string, mtime uint32, level int) []byte {
	var b headerBuilder
	flags := byte(0)
	if name != "" {
		flags |= gzipFlagName
	}
	xfl := byte(xflagDefault)
	switch {
	case level >= 9:
		xfl = xflagBest
	case level == 1:
		xfl = xflagFastest
	}
	b.bytes([]byte{gzipMagic1, gzipMagic2, gzipDeflate, flags}).
		uint32le(mtime).byte(xfl).byte(gzipOSUnix)
	if name != "" {
		b.bytesNUL([]byte(name))
	}
	return b.buf.Bytes()
}

// buildTrailer renders the 8-byte gzip trailer: CRC-32 then ISIZE, both
// little-endian.
func buildTrailer(crc uint32, isize uint32) []byte {
	var b headerBuilder
	b.uint32le(crc).uint32le(isize)
	return b.buf.Bytes()
}
