package apnganim

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Surface is the 2-D drawing target the player composes frames onto.
// The player needs rectangle clears, raster blits with both blend
// modes, region copies between surfaces and, for the debug overlay,
// rectangle strokes and text. Image exposes the backing raster so one
// surface can be drawn onto another; a host supplying its own surface
// must keep it readable through that method.
type Surface interface {
	Size() (w, h int)

	// ClearRect sets every pixel of r to fully transparent.
	ClearRect(r image.Rectangle)

	// DrawImage blits src with its top-left corner at pt. BlendOver
	// alpha-composites; BlendSource replaces the destination pixels.
	DrawImage(src image.Image, pt image.Point, blend BlendOp)

	// CopyFrom replaces the pixels at dp with the sr region of src.
	CopyFrom(src Surface, sr image.Rectangle, dp image.Point)

	StrokeRect(r image.Rectangle, c color.Color)
	FillText(text string, pt image.Point, c color.Color)

	Image() *image.NRGBA
}

// imageSurface is the default Surface, backed by an NRGBA raster.
type imageSurface struct {
	img *image.NRGBA
}

// NewImageSurface returns a transparent w×h Surface backed by an
// *image.NRGBA.
func NewImageSurface(w, h int) Surface {
	return &imageSurface{img: image.NewNRGBA(image.Rect(0, 0, w, h))}
}

func (s *imageSurface) Size() (int, int) {
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *imageSurface) Image() *image.NRGBA { return s.img }

func (s *imageSurface) ClearRect(r image.Rectangle) {
	draw.Draw(s.img, r, image.Transparent, image.Point{}, draw.Src)
}

func (s *imageSurface) DrawImage(src image.Image, pt image.Point, blend BlendOp) {
	op := draw.Over
	if blend == BlendSource {
		op = draw.Src
	}
	sb := src.Bounds()
	r := image.Rectangle{Min: pt, Max: pt.Add(sb.Size())}
	draw.Draw(s.img, r, src, sb.Min, op)
}

func (s *imageSurface) CopyFrom(src Surface, sr image.Rectangle, dp image.Point) {
	r := image.Rectangle{Min: dp, Max: dp.Add(sr.Size())}
	draw.Draw(s.img, r, src.Image(), sr.Min, draw.Src)
}

func (s *imageSurface) StrokeRect(r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	edges := [4]image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
		image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(s.img, e, u, image.Point{}, draw.Over)
	}
}

func (s *imageSurface) FillText(text string, pt image.Point, c color.Color) {
	dr := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	dr.DrawString(text)
}
