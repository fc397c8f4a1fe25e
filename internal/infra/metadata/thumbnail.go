package metadata

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder
	"image/jpeg"
	_ "image/png" // PNG decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder
)

// DefaultCoverSize bounds the longest edge of stored cover art.
const DefaultCoverSize = 500

// Thumbnail scales an embedded picture to fit within maxSize, keeping the
// aspect ratio, and encodes it as JPEG. Pictures already within bounds are
// returned unchanged with their sniffed MIME type.
func Thumbnail(data []byte, maxSize int) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= maxSize && cfg.Height <= maxSize {
		return data, "image/" + format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, resize(img, maxSize), &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return out.Bytes(), "image/jpeg", nil
}

// resize scales src to fit within maxSize using CatmullRom.
func resize(src image.Image, maxSize int) image.Image {
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	var newW, newH int
	if srcW > srcH {
		newW = maxSize
		newH = max(1, int(float64(srcH)*float64(maxSize)/float64(srcW)))
	} else {
		newH = maxSize
		newW = max(1, int(float64(srcW)*float64(maxSize)/float64(srcH)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}
