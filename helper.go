package apnganim

import (
	"io"
	"os"
)

// Open reads the PNG or APNG file at filePath and demuxes it.
//
// opts may be nil; the frame rasters are then decoded with the stdlib
// PNG decoder and warnings are discarded.
func Open(filePath string, opts *DecodeOptions) (*Animation, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return DecodeAll(data, opts)
}

// DecodeReader drains r into memory and demuxes the bytes. The demuxer
// needs the whole buffer up front because frame chunks reference the
// source by offset.
func DecodeReader(r io.Reader, opts *DecodeOptions) (*Animation, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeAll(data, opts)
}

// DecodeBytes demuxes an in-memory PNG or APNG byte buffer.
func DecodeBytes(data []byte, opts *DecodeOptions) (*Animation, error) {
	return DecodeAll(data, opts)
}
