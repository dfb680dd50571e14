package pkg

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

var (
	ErrInvalidImage  = errors.New("invalid image")
	ErrImageTooLarge = fmt.Errorf("%w: too many pixels", ErrInvalidImage)
)

const (
	DefaultImageMaxWidth = 960
	// MaxImagePixels caps width*height of an upload before it is decoded.
	MaxImagePixels = 40_000_000
	PostImageDir   = "posts"
)

// ImageStore keeps uploaded post images under Dir and hands back paths
// relative to it, e.g. "posts/<uuid>.jpg".
type ImageStore struct {
	Dir       string
	URL       string
	MaxWidth  uint
	MaxPixels int64
}

func NewImageStore(dir, url string, maxWidth uint) *ImageStore {
	if maxWidth == 0 {
		maxWidth = DefaultImageMaxWidth
	}
	return &ImageStore{Dir: dir, URL: url, MaxWidth: maxWidth, MaxPixels: MaxImagePixels}
}

// Save decodes the upload, downscales it to MaxWidth and stores it as JPEG.
// The header is checked against MaxPixels first; the pixel buffer is only
// allocated for images under the cap.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return "", ErrInvalidImage
	}
	maxPixels := s.MaxPixels
	if maxPixels <= 0 {
		maxPixels = MaxImagePixels
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return "", ErrImageTooLarge
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return "", ErrInvalidImage
	}
	if uint(img.Bounds().Dx()) > s.MaxWidth {
		img = resize.Resize(s.MaxWidth, 0, img, resize.Lanczos3)
	}

	if err := os.MkdirAll(filepath.Join(s.Dir, PostImageDir), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	rel := path.Join(PostImageDir, uuid.NewString()+".jpg")
	name := filepath.Join(s.Dir, filepath.FromSlash(rel))
	dst, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	err = jpeg.Encode(dst, img, &jpeg.Options{Quality: 85})
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("encode image: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored image. A file that is already gone is not an error.
func (s *ImageStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if !strings.HasPrefix(clean, PostImageDir+"/") {
		return fmt.Errorf("remove image %q: outside %s", rel, PostImageDir)
	}
	err := os.Remove(filepath.Join(s.Dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

// URLFor maps a stored relative path to its public URL.
func (s *ImageStore) URLFor(rel string) string {
	if rel == "" {
		return ""
	}
	return path.Join(s.URL, rel)
}
