package apnganim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"runtime"
	"sync"
)

var (
	ErrBadSignature = errors.New("apnganim: not a PNG file (bad signature)")
	ErrBadPNG       = errors.New("apnganim: malformed PNG (first chunk is not IHDR)")
	ErrNoFrames     = errors.New("apnganim: no frames")
)

// WarningCode identifies a non-fatal parse note.
type WarningCode int

const (
	WarnFrameCountMismatch WarningCode = iota
	WarnSequenceOutOfOrder
	WarnCRCMismatch
)

func (c WarningCode) String() string {
	switch c {
	case WarnFrameCountMismatch:
		return "frame count mismatch"
	case WarnSequenceOutOfOrder:
		return "sequence out of order"
	case WarnCRCMismatch:
		return "crc mismatch"
	}
	return "unknown warning"
}

// Warning is a non-fatal parse note. Warnings never alter the demuxer
// output.
type Warning struct {
	Code  WarningCode
	Chunk string // type tag of the chunk that triggered the note
}

func (w Warning) String() string {
	return "apnganim: " + w.Code.String() + " (" + w.Chunk + ")"
}

// DecodeFunc turns a standalone PNG byte sequence into a drawable
// raster.
type DecodeFunc func([]byte) (image.Image, error)

// DecodeOptions configures DecodeAll. The zero value selects the
// stdlib PNG decoder and discards warnings.
type DecodeOptions struct {
	// Decode decodes each synthesized frame PNG. Nil selects image/png.
	Decode DecodeFunc

	// Warn receives non-fatal parse notes. Nil discards them.
	Warn func(Warning)

	// OnError receives decode failures for frames other than the last.
	// Such frames keep a nil Image and the demux still completes; only
	// a failure on the final frame fails DecodeAll.
	OnError func(frame int, err error)
}

// Chunks copied verbatim into every synthesized frame. IHDR is the
// exception: it is rewritten with the frame's region size and a fresh
// CRC.
var headerChunkTypes = map[string]bool{
	"IHDR": true, "PLTE": true, "gAMA": true, "pHYs": true, "tRNS": true,
	"iCCP": true, "sRGB": true, "sBIT": true, "sPLT": true,
}

type demuxer struct {
	src   []byte
	table *crc32.Table
	opts  DecodeOptions
}

func (d *demuxer) warn(code WarningCode, chunkType string) {
	if d.opts.Warn != nil {
		d.opts.Warn(Warning{Code: code, Chunk: chunkType})
	}
}

func defaultDecode(data []byte) (image.Image, error) {
	return png.Decode(bytes.NewReader(data))
}

// DecodeAll demuxes an APNG byte buffer into an Animation. Each
// animation frame is rewritten as a standalone PNG and handed to the
// configured decoder; DecodeAll returns once every raster has been
// produced or rejected. A plain PNG (no acTL) yields a single
// full-canvas frame holding the original byte sequence.
func DecodeAll(data []byte, opts *DecodeOptions) (*Animation, error) {
	d := &demuxer{src: data, table: crc32.MakeTable(crc32.IEEE)}
	if opts != nil {
		d.opts = *opts
	}
	if d.opts.Decode == nil {
		d.opts.Decode = defaultDecode
	}

	if err := checkHeader(data); err != nil {
		return nil, err
	}
	chunks := scanChunks(data)
	if len(chunks) == 0 || chunks[0].typ != "IHDR" || chunks[0].length < 8 {
		return nil, ErrBadPNG
	}
	ihdr := chunks[0]
	width := int(binary.BigEndian.Uint32(d.src[ihdr.off:]))
	height := int(binary.BigEndian.Uint32(d.src[ihdr.off+4:]))

	d.verifyCRCs(chunks)

	actl := findChunk(chunks, "acTL")
	if actl == nil || actl.length < 8 {
		return d.decodeStill(width, height)
	}
	numFrames := binary.BigEndian.Uint32(actl.data(d.src)[0:4])
	numPlays := binary.BigEndian.Uint32(actl.data(d.src)[4:8])

	controls, files := d.partition(chunks, numFrames)
	if len(controls) == 0 || len(files) == 0 {
		return nil, ErrNoFrames
	}
	if len(controls) != len(files) {
		d.warn(WarnFrameCountMismatch, "fcTL")
	}

	headerChunks := collectHeaderChunks(chunks)
	n := min(len(controls), len(files))
	anim := &Animation{
		Width:    width,
		Height:   height,
		NumPlays: numPlays,
		Animated: true,
		Frames:   make([]Frame, n),
	}
	for i := 0; i < n; i++ {
		anim.Frames[i] = Frame{
			Data:         d.buildFramePNG(controls[i], files[i], headerChunks),
			FrameControl: controls[i],
		}
		anim.DurationMS += controls[i].DelayMS
	}

	if err := d.decodeFrames(anim.Frames); err != nil {
		return nil, err
	}
	return anim, nil
}

// decodeStill wraps a non-animated PNG as a single-frame Animation.
func (d *demuxer) decodeStill(width, height int) (*Animation, error) {
	img, err := d.opts.Decode(d.src)
	if err != nil {
		return nil, err
	}
	return &Animation{
		Width:      width,
		Height:     height,
		DurationMS: -1,
		Frames: []Frame{{
			Data:  d.src,
			Image: img,
			FrameControl: FrameControl{
				Width:   width,
				Height:  height,
				DelayMS: -1,
				Dispose: DisposeBackground,
				Blend:   BlendSource,
			},
		}},
	}, nil
}

// verifyCRCs recomputes each chunk's checksum with the per-run table
// and raises a note on mismatch. CRC failures are never fatal.
func (d *demuxer) verifyCRCs(chunks []chunk) {
	for _, c := range chunks {
		if chunkCRC(d.table, c.typ, c.data(d.src)) != c.crc(d.src) {
			d.warn(WarnCRCMismatch, c.typ)
		}
	}
}

func findChunk(chunks []chunk, typ string) *chunk {
	for i := range chunks {
		if chunks[i].typ == typ {
			return &chunks[i]
		}
	}
	return nil
}

func collectHeaderChunks(chunks []chunk) []chunk {
	var header []chunk
	for _, c := range chunks {
		if headerChunkTypes[c.typ] {
			header = append(header, c)
		}
	}
	return header
}

// parseFctl decodes the region, delay and dispose/blend fields of an
// fcTL data payload. The delay is delay_num/delay_den seconds; a zero
// denominator forces the delay to 10 ms.
func parseFctl(fd []byte) FrameControl {
	num := binary.BigEndian.Uint16(fd[20:22])
	den := binary.BigEndian.Uint16(fd[22:24])
	effDen := den
	if effDen == 0 {
		effDen = 1
	}
	delay := float64(num) / float64(effDen) * 1000
	if den == 0 {
		delay = 10
	}
	return FrameControl{
		Width:   int(binary.BigEndian.Uint32(fd[4:8])),
		Height:  int(binary.BigEndian.Uint32(fd[8:12])),
		X:       int(binary.BigEndian.Uint32(fd[12:16])),
		Y:       int(binary.BigEndian.Uint32(fd[16:20])),
		DelayMS: delay,
		Dispose: DisposeOp(fd[24]),
		Blend:   BlendOp(fd[25]),
	}
}

// partition walks the chunk index in order, splitting the interleaved
// image-data stream into per-frame lists of data slices. IDATs before
// the first fcTL belong to the static default image and are skipped;
// once an fcTL has been seen, every following IDAT joins the current
// frame. fdAT payloads lose their 4-byte sequence prefix. Sequence
// numbers across fcTL and fdAT must be non-decreasing; violations and
// a frame count differing from acTL only raise notes.
func (d *demuxer) partition(chunks []chunk, numFrames uint32) ([]FrameControl, [][][]byte) {
	var (
		controls  []FrameControl
		files     [][][]byte
		current   [][]byte
		seenFctl  bool
		lastSeq   int64 = -1
		fctlCount uint32
	)
	checkSeq := func(seq uint32, typ string) {
		if int64(seq) < lastSeq {
			d.warn(WarnSequenceOutOfOrder, typ)
		} else {
			lastSeq = int64(seq)
		}
	}
	for _, c := range chunks {
		switch c.typ {
		case "fcTL":
			if c.length < 26 {
				continue
			}
			fd := c.data(d.src)
			checkSeq(binary.BigEndian.Uint32(fd[0:4]), "fcTL")
			if len(current) > 0 {
				files = append(files, current)
			}
			current = nil
			seenFctl = true
			controls = append(controls, parseFctl(fd))
			fctlCount++
		case "IDAT":
			if seenFctl {
				current = append(current, c.data(d.src))
			}
		case "fdAT":
			if c.length < 4 {
				continue
			}
			fd := c.data(d.src)
			checkSeq(binary.BigEndian.Uint32(fd[0:4]), "fdAT")
			current = append(current, fd[4:])
		}
	}
	if len(current) > 0 {
		files = append(files, current)
	}
	if fctlCount != numFrames {
		d.warn(WarnFrameCountMismatch, "acTL")
	}
	return controls, files
}

// buildFramePNG assembles one standalone PNG: signature, header chunks
// (IHDR rewritten with the region size and a fresh CRC, the rest
// copied verbatim), one IDAT per data slice, then IEND.
func (d *demuxer) buildFramePNG(ctl FrameControl, parts [][]byte, headerChunks []chunk) []byte {
	size := len(pngHeader) + 12
	for _, hc := range headerChunks {
		size += hc.length + 12
	}
	for _, p := range parts {
		size += len(p) + 12
	}
	w := &chunkWriter{
		buf:   bytes.NewBuffer(make([]byte, 0, size)),
		table: d.table,
	}
	w.buf.WriteString(pngHeader)
	for _, hc := range headerChunks {
		if hc.typ == "IHDR" {
			ihdrData := make([]byte, hc.length)
			copy(ihdrData, hc.data(d.src))
			writeUint32(ihdrData[0:4], uint32(ctl.Width))
			writeUint32(ihdrData[4:8], uint32(ctl.Height))
			w.writeChunk(ihdrData, "IHDR")
		} else {
			w.writeRaw(hc.whole(d.src))
		}
	}
	for _, p := range parts {
		w.writeChunk(p, "IDAT")
	}
	w.writeChunk(nil, "IEND")
	return w.buf.Bytes()
}

// decodeFrames produces each frame's raster on a bounded worker pool.
// A frame the decoder rejects keeps a nil Image; only a failure on the
// last frame is fatal.
func (d *demuxer) decodeFrames(frames []Frame) error {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(frames) {
		numWorkers = len(frames)
	}

	errs := make([]error, len(frames))
	work := make(chan int, len(frames))
	for i := range frames {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				img, err := d.opts.Decode(frames[i].Data)
				if err != nil {
					errs[i] = err
					continue
				}
				frames[i].Image = img
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if i == len(frames)-1 {
			return err
		}
		if d.opts.OnError != nil {
			d.opts.OnError(i, err)
		}
	}
	return nil
}
