package apnganim

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"
)

// Mode selects the frame traversal order of a Player.
type Mode int

const (
	ModeForward Mode = iota
	ModeBackward
	ModePingPong
)

// Frame delays inside this window are driven at the display refresh
// interval instead of a plain timer, as is ForceVsync playback.
const (
	vsyncWindowLoMS = 16.0
	vsyncWindowHiMS = 17.0
	vsyncIntervalMS = 1000.0 / 60.0
)

// PlayerOptions configures a Player. The zero value plays forward at
// the animation's own delays and loops forever (Iterations 0); a
// negative Iterations inherits the acTL-declared count.
type PlayerOptions struct {
	// Iterations overrides the loop count: negative inherits the acTL
	// value, 0 loops forever, positive plays that many iterations.
	// Negative on a non-animated source resolves to a single render.
	Iterations int

	// IgnoreIterations loops forever regardless of Iterations.
	IgnoreIterations bool

	// ForceVsync drives every frame at the refresh interval.
	ForceVsync bool

	Mode Mode

	// PlaybackRate divides scheduling delays; 1 (and 0) is real time.
	PlaybackRate float64

	// Debug strokes each frame's region and prints its index and
	// dispose/blend codes on the canvas.
	Debug            bool
	DebugRegionColor color.Color
	DebugTextColor   color.Color
	DebugTextPos     image.Point

	// NewSurface builds the canvas and restore surfaces. Nil selects
	// NewImageSurface.
	NewSurface func(w, h int) Surface

	// Event slots. Installed once at construction; all fire on the
	// player's scheduling goroutine (or the caller's, for seeks, Step,
	// Pause, Stop, and for OnPlay and the first OnFrame of Play) and
	// never while the player lock is held.
	OnPlay      func()
	OnPause     func()
	OnStop      func()
	OnIteration func()
	OnEnded     func()
	OnFrame     func(index int)
}

// Player drives an Animation: it owns the output canvas, applies
// dispose/blend on each step and schedules advancement by the frame
// delays. All exported methods are safe for concurrent use, but the
// animation itself must not be retimed while the player is running.
type Player struct {
	mu   sync.Mutex
	anim *Animation
	opts PlayerOptions

	canvas  Surface
	restore Surface

	// restorePending defers a DisposePrevious restore to the start of
	// the next render.
	restorePending bool

	seq        []*Frame // mode-ordered view of anim.Frames
	mode       Mode
	cursor     int
	loops      int
	iterations int // resolved loop target; 0 loops forever

	running   bool
	commit    bool
	startTime time.Time
	timer     *time.Timer
	gen       int // invalidates timers scheduled before a pause/stop
}

// NewPlayer builds a Player over anim. opts may be nil.
func NewPlayer(anim *Animation, opts *PlayerOptions) *Player {
	p := &Player{anim: anim, commit: true}
	if opts != nil {
		p.opts = *opts
	}
	if p.opts.NewSurface == nil {
		p.opts.NewSurface = NewImageSurface
	}
	if p.opts.PlaybackRate <= 0 {
		p.opts.PlaybackRate = 1
	}
	if p.opts.DebugRegionColor == nil {
		p.opts.DebugRegionColor = color.NRGBA{R: 0xff, A: 0xff}
	}
	if p.opts.DebugTextColor == nil {
		p.opts.DebugTextColor = color.NRGBA{R: 0xff, A: 0xff}
	}
	if p.opts.DebugTextPos == (image.Point{}) {
		p.opts.DebugTextPos = image.Pt(4, 14)
	}
	p.canvas = p.opts.NewSurface(anim.Width, anim.Height)
	p.restore = p.opts.NewSurface(anim.Width, anim.Height)

	it := p.opts.Iterations
	if it < 0 {
		if anim.Animated {
			it = int(anim.NumPlays)
		} else {
			it = 0
			p.opts.IgnoreIterations = false
		}
	}
	p.iterations = it
	p.mode = p.opts.Mode
	p.rebuildSequence()
	return p
}

// rebuildSequence assembles the mode-ordered frame view. Pingpong is
// the original order followed by its reverse, so its length is twice
// the frame count. The cursor survives when still in range.
func (p *Player) rebuildSequence() {
	n := len(p.anim.Frames)
	seq := make([]*Frame, 0, 2*n)
	switch p.mode {
	case ModeBackward:
		for i := n - 1; i >= 0; i-- {
			seq = append(seq, &p.anim.Frames[i])
		}
	case ModePingPong:
		for i := 0; i < n; i++ {
			seq = append(seq, &p.anim.Frames[i])
		}
		for i := n - 1; i >= 0; i-- {
			seq = append(seq, &p.anim.Frames[i])
		}
	default:
		for i := 0; i < n; i++ {
			seq = append(seq, &p.anim.Frames[i])
		}
	}
	p.seq = seq
	if p.cursor >= len(seq) {
		p.cursor = 0
	}
}

// SetMode switches the traversal order and rebuilds the sequence.
func (p *Player) SetMode(m Mode) {
	p.mu.Lock()
	p.mode = m
	p.rebuildSequence()
	p.mu.Unlock()
}

// Mode returns the current traversal order.
func (p *Player) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SequenceLen returns the length of the mode-ordered sequence.
func (p *Player) SequenceLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.seq)
}

// CurrentFrame returns the cursor position in the sequence.
func (p *Player) CurrentFrame() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Loops returns the number of completed iterations.
func (p *Player) Loops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loops
}

// Running reports whether the playback loop is active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Elapsed returns wall time since Play, or zero when stopped.
func (p *Player) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.startTime)
}

// SetCommit toggles drawing. While false the scheduler still advances
// the cursor but skips rendering and OnFrame.
func (p *Player) SetCommit(commit bool) {
	p.mu.Lock()
	p.commit = commit
	p.mu.Unlock()
}

// Canvas returns the backing raster of the output surface.
func (p *Player) Canvas() *image.NRGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canvas.Image()
}

// Surface returns the output surface itself.
func (p *Player) Surface() Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canvas
}

// render composes sequence entry i onto the canvas. Dispose and blend
// are both taken from the entry's own control record; DisposePrevious
// is deferred through the restore surface and applied at the start of
// the following render.
func (p *Player) render(i int) {
	f := p.seq[i]
	if p.restorePending {
		p.canvas.DrawImage(p.restore.Image(), image.Point{}, BlendOver)
		p.restorePending = false
	}
	r := f.Bounds()
	switch f.Dispose {
	case DisposeBackground:
		p.canvas.ClearRect(r)
	case DisposePrevious:
		w, h := p.restore.Size()
		p.restore.ClearRect(image.Rect(0, 0, w, h))
		p.restore.CopyFrom(p.canvas, r, r.Min)
		p.restorePending = true
	}
	if f.Blend == BlendSource {
		p.canvas.ClearRect(r)
	}
	if f.Image != nil {
		p.canvas.DrawImage(f.Image, r.Min, f.Blend)
	}
	if p.opts.Debug {
		p.canvas.StrokeRect(r, p.opts.DebugRegionColor)
		label := fmt.Sprintf("F:%d  D:%d  B:%d", i, f.Dispose, f.Blend)
		p.canvas.FillText(label, p.opts.DebugTextPos, p.opts.DebugTextColor)
	}
}

// seekLocked clears the canvas to its initial transparent state and
// replays sequence entries 0 through n. n is clamped to the sequence.
func (p *Player) seekLocked(n int) int {
	if len(p.seq) == 0 {
		return 0
	}
	if n < 0 {
		n = 0
	}
	if n >= len(p.seq) {
		n = len(p.seq) - 1
	}
	w, h := p.canvas.Size()
	p.canvas.ClearRect(image.Rect(0, 0, w, h))
	p.restorePending = false
	for i := 0; i <= n; i++ {
		p.render(i)
	}
	p.cursor = n
	return n
}

// SetCurrentFrame seeks to sequence entry n (clamped), replaying the
// composition from the start, and fires OnFrame.
func (p *Player) SetCurrentFrame(n int) {
	p.mu.Lock()
	n = p.seekLocked(n)
	onframe := p.opts.OnFrame
	p.mu.Unlock()
	if onframe != nil {
		onframe(n)
	}
}

// SetCurrentTimeMS seeks to the first frame whose cumulative delay
// reaches t milliseconds.
func (p *Player) SetCurrentTimeMS(t float64) {
	p.mu.Lock()
	idx := len(p.seq) - 1
	var sum float64
	for i, f := range p.seq {
		sum += f.DelayMS
		if sum >= t {
			idx = i
			break
		}
	}
	idx = p.seekLocked(idx)
	onframe := p.opts.OnFrame
	p.mu.Unlock()
	if onframe != nil {
		onframe(idx)
	}
}

// CurrentTimeMS returns the cumulative delay of the frames up to and
// including the cursor.
func (p *Player) CurrentTimeMS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum float64
	for i := 0; i <= p.cursor && i < len(p.seq); i++ {
		sum += p.seq[i].DelayMS
	}
	return sum
}

// Step advances the cursor by n entries (n may be negative) while
// paused, rendering through the seek path.
func (p *Player) Step(n int) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	idx := p.seekLocked(p.cursor + n)
	onframe := p.opts.OnFrame
	p.mu.Unlock()
	if onframe != nil {
		onframe(idx)
	}
}

// Play starts the playback loop. Playing an already-running player is
// a no-op.
func (p *Player) Play() {
	p.mu.Lock()
	if p.running || len(p.seq) == 0 {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.gen++
	p.startTime = time.Now()
	onplay := p.opts.OnPlay
	p.mu.Unlock()
	if onplay != nil {
		onplay()
	}
	p.step()
}

// step renders the cursor entry (when committing), fires OnFrame and
// schedules the advance after the frame's delay. A negative delay
// marks a non-animated single frame: render once, then end.
func (p *Player) step() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	i := p.cursor
	f := p.seq[i]
	var onframe func(int)
	if p.commit {
		p.render(i)
		onframe = p.opts.OnFrame
	}
	delay := f.DelayMS
	gen := p.gen
	p.mu.Unlock()

	if onframe != nil {
		onframe(i)
	}
	if delay < 0 {
		p.mu.Lock()
		p.running = false
		onended := p.opts.OnEnded
		p.mu.Unlock()
		if onended != nil {
			onended()
		}
		return
	}

	effective := delay
	if p.opts.ForceVsync || (delay >= vsyncWindowLoMS && delay <= vsyncWindowHiMS) {
		effective = vsyncIntervalMS
	}
	wait := time.Duration(effective / p.opts.PlaybackRate * float64(time.Millisecond))

	p.mu.Lock()
	if !p.running || p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.timer = time.AfterFunc(wait, func() { p.advance(gen) })
	p.mu.Unlock()
}

// advance moves the cursor forward, wrapping at the sequence end. Each
// wrap counts one iteration; when the resolved iteration target is
// reached (and not ignored), playback ends.
func (p *Player) advance(gen int) {
	p.mu.Lock()
	if !p.running || gen != p.gen {
		p.mu.Unlock()
		return
	}
	p.cursor++
	var iterated, ended bool
	if p.cursor >= len(p.seq) {
		p.cursor = 0
		p.loops++
		iterated = true
		if !p.opts.IgnoreIterations && p.iterations > 0 && p.loops >= p.iterations {
			p.running = false
			ended = true
		}
	}
	oniter := p.opts.OnIteration
	onended := p.opts.OnEnded
	p.mu.Unlock()

	if iterated && oniter != nil {
		oniter()
	}
	if ended {
		if onended != nil {
			onended()
		}
		return
	}
	p.step()
}

// haltLocked cancels the pending tick synchronously. No OnFrame fires
// for a canceled tick.
func (p *Player) haltLocked() {
	p.running = false
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// Pause stops the loop, keeping the cursor where it is.
func (p *Player) Pause() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.haltLocked()
	onpause := p.opts.OnPause
	p.mu.Unlock()
	if onpause != nil {
		onpause()
	}
}

// Stop pauses, rewinds to the first frame, renders it once and fires
// OnStop.
func (p *Player) Stop() {
	p.mu.Lock()
	p.haltLocked()
	p.seekLocked(0)
	onstop := p.opts.OnStop
	p.mu.Unlock()
	if onstop != nil {
		onstop()
	}
}
