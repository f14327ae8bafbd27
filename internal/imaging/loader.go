package imaging

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrImageDecode reports that an input could not be decoded into a pixel grid.
// A decode failure aborts the whole matching call.
var ErrImageDecode = errors.New("image decode failure")

// DefaultCacheEntries bounds NewImageCache.
const DefaultCacheEntries = 64

// ImageCache keeps decoded frames keyed by the path they were loaded from.
//
// A model's reference image is reused for every frame it is matched against,
// while target frames arrive one after another. The cache therefore holds at
// most a fixed number of entries and drops the oldest insertion when full,
// so a long matching session does not grow without bound.
//
// Keys are the exact path strings passed to Load or Put; a relative and an
// absolute path to the same file are two entries.
//
// ImageCache is safe for concurrent use.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
	order  []string
	limit  int
}

// NewImageCache returns an empty cache holding up to DefaultCacheEntries images.
func NewImageCache() *ImageCache {
	return NewImageCacheSize(DefaultCacheEntries)
}

// NewImageCacheSize returns an empty cache holding up to limit images.
// A limit below one is treated as one.
func NewImageCacheSize(limit int) *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
		limit:  max(limit, 1),
	}
}

// Load returns the image stored under path, reading and decoding the file on
// a miss. PNG, JPEG and GIF are supported.
//
// A missing or unreadable file is returned as a wrapped I/O error. Content
// that does not decode wraps ErrImageDecode and names the path.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	img, ok := c.images[path]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open image")
	}
	defer f.Close()

	img, err = Decode(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}

	c.Put(path, img)
	return img, nil
}

// Decode reads a PNG, JPEG, or GIF stream into an image.
//
// Any failure, including an empty stream or a zero-sized image, is reported as
// ErrImageDecode so callers can tell it apart from I/O errors.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(ErrImageDecode, "%v", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.Wrap(ErrImageDecode, "image has no pixels")
	}
	return img, nil
}

// Put stores an already decoded image under path. Later Load calls for the
// same path return it without touching the disk.
func (c *ImageCache) Put(path string, img image.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[path]; !ok {
		c.order = append(c.order, path)
	}
	c.images[path] = img

	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.images, oldest)
	}
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.order = nil
	c.mu.Unlock()
}

// Evict drops the image stored under path, if any. The next Load reads the
// file again, which picks up a frame that was overwritten in place.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.images[path]; !ok {
		return
	}
	delete(c.images, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// ImageInfo describes an image file as reported by the image_load tool.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format comes from the file extension: png, jpeg, gif or unknown.
	Format string `json:"format"`

	// ColorDepth is "8-bit", "16-bit", or "indexed" for paletted images.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

var formatByExt = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".gif":  "gif",
}

// LoadImageInfo loads path through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat file")
	}

	format, ok := formatByExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		format = "unknown"
	}

	info := &ImageInfo{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		Format:        format,
		ColorDepth:    "8-bit",
		FileSizeBytes: stat.Size(),
	}
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray16:
		info.ColorDepth = "16-bit"
	case *image.Paletted:
		info.ColorDepth = "indexed"
	}
	return info, nil
}

// DimensionsResult is the size of an image in pixels.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions loads path through cache and returns its size.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &DimensionsResult{Width: b.Dx(), Height: b.Dy()}, nil
}
