package apnganim

import "testing"

func TestSpriteSheetSingleRow(t *testing.T) {
	anim := buildAnim(t, 10, 6, 0, []testFrame{
		{img: solid(10, 6, red), num: 1, den: 100},
		{img: solid(10, 6, green), num: 1, den: 100},
		{img: solid(10, 6, blue), num: 1, den: 100},
	})
	p := NewPlayer(anim, nil)
	sheet, layout := p.SpriteSheet(0)
	if sheet == nil {
		t.Fatal("nil sheet")
	}
	b := sheet.Bounds()
	if b.Dx() != 30 || b.Dy() != 6 {
		t.Errorf("sheet = %dx%d, want 30x6", b.Dx(), b.Dy())
	}
	want := SheetLayout{Columns: 3, Rows: 1, CellWidth: 10, CellHeight: 6}
	if layout != want {
		t.Errorf("layout = %+v, want %+v", layout, want)
	}
	// Cell centers carry the per-frame colors.
	for i, c := range []interface{}{red, green, blue} {
		if got := pixelAt(sheet, i*10+5, 3); got != c {
			t.Errorf("cell %d pixel = %v, want %v", i, got, c)
		}
	}
}

func TestSpriteSheetWraps(t *testing.T) {
	anim := buildAnim(t, 10, 6, 0, []testFrame{
		{img: solid(10, 6, red), num: 1, den: 100},
		{img: solid(10, 6, green), num: 1, den: 100},
		{img: solid(10, 6, blue), num: 1, den: 100},
	})
	p := NewPlayer(anim, nil)
	sheet, layout := p.SpriteSheet(25) // room for two 10px cells per row
	b := sheet.Bounds()
	if b.Dx() != 20 || b.Dy() != 12 {
		t.Errorf("sheet = %dx%d, want 20x12", b.Dx(), b.Dy())
	}
	want := SheetLayout{Columns: 2, Rows: 2, CellWidth: 10, CellHeight: 6}
	if layout != want {
		t.Errorf("layout = %+v, want %+v", layout, want)
	}
	if got := pixelAt(sheet, 5, 3); got != red {
		t.Errorf("cell 0 = %v, want %v", got, red)
	}
	if got := pixelAt(sheet, 15, 3); got != green {
		t.Errorf("cell 1 = %v, want %v", got, green)
	}
	if got := pixelAt(sheet, 5, 9); got != blue {
		t.Errorf("cell 2 (wrapped) = %v, want %v", got, blue)
	}
}

func TestSpriteSheetSingleFrame(t *testing.T) {
	anim := buildAnim(t, 10, 6, 0, []testFrame{
		{img: solid(10, 6, red), num: 1, den: 100},
	})
	p := NewPlayer(anim, nil)
	sheet, layout := p.SpriteSheet(0)
	b := sheet.Bounds()
	if b.Dx() != 10 || b.Dy() != 6 {
		t.Errorf("sheet = %dx%d, want full canvas 10x6", b.Dx(), b.Dy())
	}
	if layout.Columns != 1 || layout.Rows != 1 {
		t.Errorf("layout = %+v, want 1x1", layout)
	}
}

func TestSpriteSheetPingPong(t *testing.T) {
	anim := buildAnim(t, 10, 6, 0, []testFrame{
		{img: solid(10, 6, red), num: 1, den: 100},
		{img: solid(10, 6, blue), num: 1, den: 100},
	})
	p := NewPlayer(anim, &PlayerOptions{Mode: ModePingPong})
	sheet, layout := p.SpriteSheet(0)
	if layout.Columns != 4 {
		t.Errorf("pingpong sheet columns = %d, want 4", layout.Columns)
	}
	if got := pixelAt(sheet, 35, 3); got != red {
		t.Errorf("last cell = %v, want %v (mirrored first frame)", got, red)
	}
}
