package apnganim

import "encoding/binary"

const pngHeader string = "\x89PNG\r\n\x1a\n"

// chunk references one PNG chunk inside the source buffer without
// copying. off points at the chunk's data bytes, past the 8-byte
// length/type header.
type chunk struct {
	typ    string
	off    int
	length int
}

func (c chunk) data(src []byte) []byte { return src[c.off : c.off+c.length] }

// whole returns the chunk with its framing included: length, type,
// data and CRC (12 bytes of overhead).
func (c chunk) whole(src []byte) []byte { return src[c.off-8 : c.off+c.length+4] }

func (c chunk) crc(src []byte) uint32 {
	return binary.BigEndian.Uint32(src[c.off+c.length : c.off+c.length+4])
}

func checkHeader(data []byte) error {
	if len(data) < len(pngHeader) || string(data[:len(pngHeader)]) != pngHeader {
		return ErrBadSignature
	}
	return nil
}

// scanChunks walks data from the end of the signature and indexes every
// chunk. CRCs are not inspected here. The walk stops at the first chunk
// whose declared length runs past the end of the buffer.
func scanChunks(data []byte) []chunk {
	var chunks []chunk
	pos := len(pngHeader)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		if length < 0 || pos+8+length+4 > len(data) {
			break
		}
		chunks = append(chunks, chunk{
			typ:    string(data[pos+4 : pos+8]),
			off:    pos + 8,
			length: length,
		})
		pos += length + 12
	}
	return chunks
}
