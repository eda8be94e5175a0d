package apnganim

import (
	"bytes"
	"hash/crc32"
)

func writeUint16(b []uint8, u uint16) {
	b[0] = uint8(u >> 8)
	b[1] = uint8(u)
}

func writeUint32(b []uint8, u uint32) {
	b[0] = uint8(u >> 24)
	b[1] = uint8(u >> 16)
	b[2] = uint8(u >> 8)
	b[3] = uint8(u)
}

// chunkWriter assembles PNG chunks into a buffer. Each chunk is framed
// with a big-endian length and a CRC computed over type and data with
// the caller's table.
type chunkWriter struct {
	buf   *bytes.Buffer
	table *crc32.Table

	tmpHeader [8]byte
	tmpFooter [4]byte
}

func (w *chunkWriter) writeChunk(b []byte, name string) {
	writeUint32(w.tmpHeader[:4], uint32(len(b)))
	w.tmpHeader[4] = name[0]
	w.tmpHeader[5] = name[1]
	w.tmpHeader[6] = name[2]
	w.tmpHeader[7] = name[3]
	w.buf.Write(w.tmpHeader[:8])
	w.buf.Write(b)
	writeUint32(w.tmpFooter[:4], chunkCRC(w.table, name, b))
	w.buf.Write(w.tmpFooter[:4])
}

// writeRaw copies an already-framed chunk (length, type, data, CRC)
// verbatim.
func (w *chunkWriter) writeRaw(framed []byte) {
	w.buf.Write(framed)
}
