package apnganim

import (
	"image"

	"golang.org/x/image/draw"
)

// DefaultSheetMaxWidth bounds sprite sheet width in pixels when the
// caller passes no limit.
const DefaultSheetMaxWidth = 6000

// SheetLayout describes the grid geometry of a generated sprite sheet.
type SheetLayout struct {
	Columns, Rows         int
	CellWidth, CellHeight int
}

// SpriteSheet renders every entry of the player's sequence into a
// horizontal, row-wrapped grid of full-canvas cells. While the frames
// fit inside maxWidth the sheet is a single row; otherwise rows wrap
// at floor(maxWidth/width) cells. maxWidth <= 0 selects
// DefaultSheetMaxWidth. Each cell is produced by seeking the
// compositor to that entry, so dispose/blend accumulation is applied.
func (p *Player) SpriteSheet(maxWidth int) (*image.NRGBA, SheetLayout) {
	if maxWidth <= 0 {
		maxWidth = DefaultSheetMaxWidth
	}
	w, h := p.anim.Width, p.anim.Height
	n := p.SequenceLen()
	if n == 0 || w <= 0 || h <= 0 {
		return nil, SheetLayout{}
	}

	var cols, sheetW, sheetH int
	if w*n <= maxWidth {
		cols = n
		sheetW = w * n
		sheetH = h
	} else {
		cols = maxWidth / w
		if cols < 1 {
			cols = 1
		}
		sheetW = cols * w
		sheetH = (n + cols - 1) / cols * h
	}

	sheet := image.NewNRGBA(image.Rect(0, 0, sheetW, sheetH))
	x, y := 0, 0
	for i := 0; i < n; i++ {
		p.SetCurrentFrame(i)
		draw.Draw(sheet, image.Rect(x, y, x+w, y+h), p.Canvas(), image.Point{}, draw.Src)
		x += w
		if x >= sheetW {
			x = 0
			y += h
		}
	}
	return sheet, SheetLayout{
		Columns:    cols,
		Rows:       sheetH / h,
		CellWidth:  w,
		CellHeight: h,
	}
}
