package media_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aussiebroadwan/billboard/internal/blog/media"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestSaveDownscalesLargeImages(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	name, err := s.Save(encodePNG(t, 2000, 2000), "me.PNG")
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^[0-9a-f]{16}\.png$`), name)

	w, h := decodeSize(t, s.Path(name))
	require.Equal(t, 125, w)
	require.Equal(t, 125, h)
}

func TestSaveKeepsAspectRatio(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	name, err := s.Save(encodePNG(t, 1000, 500), "wide.png")
	require.NoError(t, err)

	w, h := decodeSize(t, s.Path(name))
	require.Equal(t, 125, w)
	require.Equal(t, 62, h)
}

func TestSaveLeavesSmallImages(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	name, err := s.Save(encodePNG(t, 50, 50), "small.png")
	require.NoError(t, err)

	w, h := decodeSize(t, s.Path(name))
	require.Equal(t, 50, w)
	require.Equal(t, 50, h)
}

func TestSaveReencodesToExtension(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	name, err := s.Save(encodePNG(t, 300, 200), "photo.jpg")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(name, ".jpg"))

	f, err := os.Open(s.Path(name))
	require.NoError(t, err)
	defer f.Close()
	_, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
}

func TestSaveRejectsUnsupported(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	_, err := s.Save(encodePNG(t, 10, 10), "x.bmp")
	require.ErrorIs(t, err, media.ErrUnsupportedFormat)

	_, err = s.Save(strings.NewReader("definitely not an image"), "x.png")
	require.ErrorIs(t, err, media.ErrUnsupportedFormat)
}

func TestEnsureDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profile_pics")
	s := media.NewAvatarStore(dir)

	require.NoError(t, s.EnsureDefault())
	w, h := decodeSize(t, filepath.Join(dir, "default.jpg"))
	require.Equal(t, 125, w)
	require.Equal(t, 125, h)

	info, err := os.Stat(filepath.Join(dir, "default.jpg"))
	require.NoError(t, err)
	require.NoError(t, s.EnsureDefault())
	again, err := os.Stat(filepath.Join(dir, "default.jpg"))
	require.NoError(t, err)
	require.Equal(t, info.ModTime(), again.ModTime())
}

func TestThumbnail(t *testing.T) {
	tall := image.NewRGBA(image.Rect(0, 0, 100, 400))
	out := media.Thumbnail(tall, 125)
	require.Equal(t, 31, out.Bounds().Dx())
	require.Equal(t, 125, out.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	require.Same(t, small, media.Thumbnail(small, 125))
}

func TestSaveRejectsOversizedDimensions(t *testing.T) {
	dir := t.TempDir()
	s := media.NewAvatarStore(dir)

	// A one pixel high strip compresses to almost nothing but still declares
	// a width past the limit.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, media.MaxSourceSide+1, 1))))
	require.Less(t, buf.Len(), 64<<10)

	_, err := s.Save(&buf, "wide.png")
	require.ErrorIs(t, err, media.ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSaveAcceptsImagesAtTheLimit(t *testing.T) {
	s := media.NewAvatarStore(t.TempDir())

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, media.MaxSourceSide, 2))))

	name, err := s.Save(&buf, "strip.png")
	require.NoError(t, err)

	w, h := decodeSize(t, s.Path(name))
	require.Equal(t, media.ThumbnailBound, w)
	require.Equal(t, 1, h)
}
