package viz

import (
	"image"
	"image/gif"
	"io"
	"os"
)

// WriteGIF encodes frames as a looping animation. delay is in hundredths
// of a second.
func WriteGIF(w io.Writer, frames []*image.Paletted, delay int) error {
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, max(delay, 1))
	}
	return gif.EncodeAll(w, &anim)
}

func SaveGIF(path string, frames []*image.Paletted, delay int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGIF(f, frames, delay); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
