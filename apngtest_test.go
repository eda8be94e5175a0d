package apnganim

import (
	"bytes"
	"compress/zlib"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// apngBuilder assembles APNG byte streams for tests chunk by chunk,
// handing out animation sequence numbers as it goes.
type apngBuilder struct {
	cw  *chunkWriter
	seq uint32
	tmp [26]byte
}

func newAPNGBuilder() *apngBuilder {
	buf := &bytes.Buffer{}
	buf.WriteString(pngHeader)
	return &apngBuilder{cw: &chunkWriter{buf: buf, table: crc32.MakeTable(crc32.IEEE)}}
}

func (b *apngBuilder) bytes() []byte { return b.cw.buf.Bytes() }

func (b *apngBuilder) chunk(name string, data []byte) { b.cw.writeChunk(data, name) }

func (b *apngBuilder) ihdr(data []byte) { b.chunk("IHDR", data) }

func (b *apngBuilder) actl(frames, plays uint32) {
	writeUint32(b.tmp[0:4], frames)
	writeUint32(b.tmp[4:8], plays)
	b.chunk("acTL", b.tmp[:8])
}

func (b *apngBuilder) fctlSeq(seq uint32, w, h, x, y int, num, den uint16, dispose DisposeOp, blend BlendOp) {
	writeUint32(b.tmp[0:4], seq)
	writeUint32(b.tmp[4:8], uint32(w))
	writeUint32(b.tmp[8:12], uint32(h))
	writeUint32(b.tmp[12:16], uint32(x))
	writeUint32(b.tmp[16:20], uint32(y))
	writeUint16(b.tmp[20:22], num)
	writeUint16(b.tmp[22:24], den)
	b.tmp[24] = byte(dispose)
	b.tmp[25] = byte(blend)
	b.chunk("fcTL", b.tmp[:26])
}

func (b *apngBuilder) fctl(w, h, x, y int, num, den uint16, dispose DisposeOp, blend BlendOp) {
	b.fctlSeq(b.seq, w, h, x, y, num, den, dispose, blend)
	b.seq++
}

func (b *apngBuilder) idat(data []byte) { b.chunk("IDAT", data) }

func (b *apngBuilder) fdatSeq(seq uint32, data []byte) {
	fd := make([]byte, 4, 4+len(data))
	writeUint32(fd[0:4], seq)
	fd = append(fd, data...)
	b.chunk("fdAT", fd)
}

func (b *apngBuilder) fdat(data []byte) {
	b.fdatSeq(b.seq, data)
	b.seq++
}

func (b *apngBuilder) iend() { b.chunk("IEND", nil) }

// rawIHDR builds IHDR data for an 8-bit truecolor-with-alpha image.
// Fixtures bypass png.Encode here because its color-type heuristic
// would give opaque and non-opaque frames different pixel layouts,
// while APNG frames must all match the shared header.
func rawIHDR(w, h int) []byte {
	d := make([]byte, 13)
	writeUint32(d[0:4], uint32(w))
	writeUint32(d[4:8], uint32(h))
	d[8] = 8 // bit depth
	d[9] = 6 // truecolor with alpha
	return d
}

// rawIDAT compresses img as filter-none RGBA scanlines.
func rawIDAT(t *testing.T, img *image.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	b := img.Bounds()
	row := make([]byte, 1+b.Dx()*4)
	for y := 0; y < b.Dy(); y++ {
		copy(row[1:], img.Pix[y*img.Stride:y*img.Stride+b.Dx()*4])
		if _, err := zw.Write(row); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// testFrame describes one animation frame for buildAnim fixtures.
type testFrame struct {
	img      *image.NRGBA
	x, y     int
	num, den uint16
	dispose  DisposeOp
	blend    BlendOp
}

// buildAnim assembles an APNG with the given canvas size and frames,
// then demuxes it. The first frame travels as IDAT, the rest as fdAT.
func buildAnim(t *testing.T, w, h int, plays uint32, frames []testFrame) *Animation {
	t.Helper()
	return decodeAllOrFatal(t, buildAPNG(t, w, h, plays, frames))
}

func buildAPNG(t *testing.T, w, h int, plays uint32, frames []testFrame) []byte {
	t.Helper()
	b := newAPNGBuilder()
	b.ihdr(rawIHDR(w, h))
	b.actl(uint32(len(frames)), plays)
	for i, f := range frames {
		fb := f.img.Bounds()
		b.fctl(fb.Dx(), fb.Dy(), f.x, f.y, f.num, f.den, f.dispose, f.blend)
		idat := rawIDAT(t, f.img)
		if i == 0 {
			b.idat(idat)
		} else {
			b.fdat(idat)
		}
	}
	b.iend()
	return b.bytes()
}

func decodeAllOrFatal(t *testing.T, data []byte) *Animation {
	t.Helper()
	anim, err := DecodeAll(data, nil)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	return anim
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pixelAt(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(x, y)
}

func newTestCRCTable() *crc32.Table {
	return crc32.MakeTable(crc32.IEEE)
}

var (
	red         = color.NRGBA{R: 0xff, A: 0xff}
	green       = color.NRGBA{G: 0xff, A: 0xff}
	blue        = color.NRGBA{B: 0xff, A: 0xff}
	transparent = color.NRGBA{}
)
