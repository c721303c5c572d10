// Package media stores profile pictures as small thumbnails on local disk.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/billboard/internal/blog/domain"
	"github.com/aussiebroadwan/billboard/pkg/cryptox"
	"golang.org/x/image/draw"
)

// ThumbnailBound is the longest side, in pixels, of a stored avatar.
const ThumbnailBound = 125

// MaxSourceSide caps either side of an upload. The header is checked before
// any pixels are decoded, so a small file claiming huge dimensions is turned
// away without allocating its raster.
const MaxSourceSide = 4096

var ErrUnsupportedFormat = errors.New("media: unsupported image format")

// AvatarStore writes thumbnails into Dir, usually <static>/profile_pics.
type AvatarStore struct {
	Dir string
}

func NewAvatarStore(dir string) *AvatarStore {
	return &AvatarStore{Dir: dir}
}

// Save decodes the upload, shrinks it to ThumbnailBound and writes it under a
// random 16 hex character name that keeps the original extension.
func (s *AvatarStore) Save(r io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !supportedExt(ext) {
		return "", ErrUnsupportedFormat
	}

	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxSourceSide || cfg.Height > MaxSourceSide {
		return "", fmt.Errorf("%w: %dx%d is outside the %dpx limit", ErrUnsupportedFormat, cfg.Width, cfg.Height, MaxSourceSide)
	}

	img, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	thumb := Thumbnail(img, ThumbnailBound)

	token, err := cryptox.GenerateHex(cryptox.TokenSize64)
	if err != nil {
		return "", err
	}
	name := token + ext

	if err := s.write(name, thumb, ext); err != nil {
		return "", err
	}
	return name, nil
}

// EnsureDefault writes a plain placeholder avatar if none exists yet.
func (s *AvatarStore) EnsureDefault() error {
	path := filepath.Join(s.Dir, domain.DefaultImageFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, ThumbnailBound, ThumbnailBound))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}}, image.Point{}, draw.Src)
	return s.write(domain.DefaultImageFile, img, ".jpg")
}

// Path returns where name lives on disk.
func (s *AvatarStore) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

func (s *AvatarStore) write(name string, img image.Image, ext string) (err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(s.Path(name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch ext {
	case ".png":
		return png.Encode(f, img)
	case ".gif":
		return gif.Encode(f, img, nil)
	default:
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
}

// Thumbnail scales img down so neither side exceeds bound, keeping the aspect
// ratio. Images already within bound are returned unchanged.
func Thumbnail(img image.Image, bound int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= bound && h <= bound {
		return img
	}

	nw, nh := bound, bound
	if w >= h {
		nh = max(1, h*bound/w)
	} else {
		nw = max(1, w*bound/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func supportedExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
