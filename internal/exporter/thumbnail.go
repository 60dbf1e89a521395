package exporter

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

const maxThumbDim = 480

// ensureThumbnail downscales fullPath to at most maxThumbDim on its
// longest side using golang.org/x/image/draw's CatmullRom sampler,
// writing the result alongside the full-size file in mediaDir. The
// teacher's go.mod already lists this dependency unwired; the
// Exporter is where it earns its keep.
func (e *Exporter) ensureThumbnail(fullPath, mediaDir, pictureID string) (string, error) {
	thumbName := "thumb_" + pictureID + ".jpg"
	thumbPath := filepath.Join(mediaDir, thumbName)

	if _, err := os.Stat(thumbPath); err == nil {
		return filepath.Join("media", thumbName), nil
	}

	src, err := decodeImage(fullPath)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", fullPath, err)
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxThumbDim && h <= maxThumbDim {
		// Already small enough; still materialize a copy so callers can
		// rely on a stable thumb_*.jpg name.
		return copyAsThumbnail(fullPath, thumbPath, thumbName)
	}

	scale := float64(maxThumbDim) / float64(w)
	if h > w {
		scale = float64(maxThumbDim) / float64(h)
	}
	dstW, dstH := int(float64(w)*scale), int(float64(h)*scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	out, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", thumbPath, err)
	}
	defer out.Close()
	if err := jpeg.Encode(out, dst, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode thumbnail %s: %w", thumbPath, err)
	}
	return filepath.Join("media", thumbName), nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func copyAsThumbnail(fullPath, thumbPath, thumbName string) (string, error) {
	in, err := os.Open(fullPath)
	if err != nil {
		return "", err
	}
	defer in.Close()
	out, err := os.Create(thumbPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := out.ReadFrom(in); err != nil {
		return "", err
	}
	return filepath.Join("media", thumbName), nil
}

