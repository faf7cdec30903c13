// Package asset retrieves the images placed on the cover page.
//
// Logos are downloaded over HTTP, decoded (PNG, JPEG, GIF, WebP, BMP or
// TIFF) and re-encoded as PNG so every document writer can embed them the
// same way. Decoded logos are optionally cached on disk.
package asset

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/dcxsea/fieldreport/internal/document"
)

// ErrBadStatus is returned for non-2xx responses.
var ErrBadStatus = errors.New("unexpected HTTP status")

// ErrEmptyURL is returned when no logo URL is configured.
var ErrEmptyURL = errors.New("empty logo URL")

// HTTPLogoSource downloads logos. It implements document.LogoSource.
type HTTPLogoSource struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	cacheDir    string
	logger      *slog.Logger
}

// Option configures an HTTPLogoSource.
type Option func(*HTTPLogoSource)

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *HTTPLogoSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithMaxBodySize limits the image download size.
func WithMaxBodySize(size int64) Option {
	return func(s *HTTPLogoSource) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithCacheDir stores normalised logos in dir and reuses them.
func WithCacheDir(dir string) Option {
	return func(s *HTTPLogoSource) {
		s.cacheDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *HTTPLogoSource) {
		s.logger = logger
	}
}

// NewHTTPLogoSource creates a logo source using client. A nil client means
// http.DefaultClient.
func NewHTTPLogoSource(client *http.Client, opts ...Option) *HTTPLogoSource {
	if client == nil {
		client = http.DefaultClient
	}
	s := &HTTPLogoSource{
		client:      client,
		userAgent:   "fieldreport/1.0",
		maxBodySize: 10 * 1024 * 1024, // 10MB
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ document.LogoSource = (*HTTPLogoSource)(nil)

// Logo returns the image at url as PNG.
func (s *HTTPLogoSource) Logo(ctx context.Context, url string) (*document.Image, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	cachePath := s.cachePath(url)
	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil { //nolint:gosec // path is derived from a digest
			if img, err := Normalize(bytes.NewReader(data)); err == nil {
				s.logger.Debug("using cached logo", "path", cachePath)
				return img, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "image/png,image/*;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	img, err := Normalize(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := s.store(cachePath, img.Data); err != nil {
			s.logger.Warn("failed to cache logo", "path", cachePath, "error", err)
		}
	}
	return img, nil
}

// Normalize decodes any registered image format and re-encodes it as PNG.
func Normalize(r io.Reader) (*document.Image, error) {
	decoded, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, fmt.Errorf("failed to encode %s logo as PNG: %w", format, err)
	}

	bounds := decoded.Bounds()
	return &document.Image{
		Data:   buf.Bytes(),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

func (s *HTTPLogoSource) cachePath(url string) string {
	if s.cacheDir == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(url))
	return filepath.Join(s.cacheDir, "logo-"+hex.EncodeToString(sum[:8])+".png")
}

func (s *HTTPLogoSource) store(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
