package exporter

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	placeholderW = 480
	placeholderH = 270
)

// placeholderPath renders a flat-gray "media unavailable" tile
// labelled with the source host, for media that could not be fetched
// at export time (spec.md §4.4's broken-media handling). The teacher's
// go.mod carries golang/freetype unused; this is where it draws text.
func (e *Exporter) placeholderPath(rawURL, mediaDir, ref string) (string, error) {
	name := "broken_" + ref + ".jpg"
	path := filepath.Join(mediaDir, name)
	if _, err := os.Stat(path); err == nil {
		return filepath.Join("media", name), nil
	}

	img := image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray16{Y: 0x9999}), image.Point{}, draw.Src)

	if err := drawLabel(img, "media unavailable\n"+hostOf(rawURL)); err != nil {
		return "", fmt.Errorf("draw placeholder label: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create placeholder %s: %w", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode placeholder %s: %w", path, err)
	}
	return filepath.Join("media", name), nil
}

func drawLabel(img *image.RGBA, label string) error {
	fnt, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(fnt)
	ctx.SetFontSize(18)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.White))

	pt := freetype.Pt(20, placeholderH/2)
	_, err = ctx.DrawString(label, pt)
	return err
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
