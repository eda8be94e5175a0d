package main

import (
	"fmt"
	"image/png"
	"log"
	"os"

	"github.com/setanarut/apnganim"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: example <file.png>")
	}

	anim, err := apnganim.Open(os.Args[1], &apnganim.DecodeOptions{
		Warn: func(w apnganim.Warning) { log.Println(w) },
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%dx%d, %d frame(s), animated=%v, %.1f ms total\n",
		anim.Width, anim.Height, len(anim.Frames), anim.Animated, anim.DurationMS)

	player := apnganim.NewPlayer(anim, nil)
	sheet, layout := player.SpriteSheet(0)
	if sheet == nil {
		log.Fatal("empty animation")
	}
	fmt.Printf("sprite sheet: %d cols x %d rows (%dx%d cells)\n",
		layout.Columns, layout.Rows, layout.CellWidth, layout.CellHeight)

	out, err := os.Create("sheet.png")
	if err != nil {
		log.Fatal(err)
	}
	defer out.Close()
	if err := png.Encode(out, sheet); err != nil {
		log.Fatal(err)
	}
}
