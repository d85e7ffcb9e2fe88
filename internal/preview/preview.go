// Package preview keeps display thumbnails for uploaded images.
package preview

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/patrickmn/go-cache"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxSide bounds the longer edge of a thumbnail in pixels.
const MaxSide = 320

// Registry maps item ids to thumbnail data URIs. A handle lives from Acquire
// until Release.
type Registry struct {
	cache *cache.Cache
}

// NewRegistry creates an empty registry. Entries never expire on their own.
func NewRegistry() *Registry {
	return &Registry{cache: cache.New(cache.NoExpiration, 0)}
}

// Acquire renders a thumbnail for data and registers it under id.
func (r *Registry) Acquire(id string, data []byte) (string, error) {
	uri, err := Thumbnail(data)
	if err != nil {
		return "", err
	}
	r.cache.Set(id, uri, cache.NoExpiration)
	return uri, nil
}

// Release drops the handle for id. Releasing an unknown id is a no-op.
func (r *Registry) Release(id string) {
	r.cache.Delete(id)
}

// Thumbnail decodes an image in any registered format and returns a
// downscaled JPEG as a data URI.
func Thumbnail(data []byte) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := scaled(b.Dx(), b.Dy())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func scaled(w, h int) (int, int) {
	if w <= MaxSide && h <= MaxSide {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return MaxSide, max(h*MaxSide/w, 1)
	}
	return max(w*MaxSide/h, 1), MaxSide
}
