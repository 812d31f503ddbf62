// Package imaging downloads and decodes result images, normalizing every
// source to a single canonical in-memory form (*image.RGBA).
package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/hquan/msearch/internal/logger"
)

// maxImageBytes bounds how much of a response body is read before decoding.
const maxImageBytes = int64(20 << 20)

// Fetcher downloads images over HTTP and decodes them.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxDim    int
}

// NewFetcher creates an image fetcher. Third-party thumbnails can be large
// and slow, so the default timeout is a generous 300 seconds. maxDim bounds
// the larger image dimension after decoding; zero disables downscaling.
func NewFetcher(timeout time.Duration, userAgent string, maxDim int) *Fetcher {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = "msearch/0.1"
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxDim:    maxDim,
	}
}

// IsHTTPURL reports whether s is an absolute http or https URL.
func IsHTTPURL(s string) bool {
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Fetch downloads and decodes the image at rawURL. Any failure — a
// non-HTTP URL, a network error, a bad status, undecodable bytes — returns
// nil rather than an error; a missing image degrades the one result that
// wanted it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) *image.RGBA {
	if !IsHTTPURL(rawURL) {
		logger.Warn("image fetch skipped, not an http(s) url: %s", rawURL)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		logger.Warn("image fetch failed to build request for %s: %v", rawURL, err)
		return nil
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Warn("image fetch failed for %s: %v", rawURL, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("image fetch for %s returned status %d", rawURL, resp.StatusCode)
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		logger.Warn("image fetch failed reading body for %s: %v", rawURL, err)
		return nil
	}

	img, err := Decode(data)
	if err != nil {
		logger.Warn("image decode failed for %s: %v", rawURL, err)
		return nil
	}

	return Normalize(img, f.maxDim)
}

// Decode decodes raw image bytes (jpeg, png, gif, webp) into the canonical
// RGBA form without resizing.
func Decode(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return Normalize(src, 0), nil
}

// Normalize converts src to *image.RGBA, downscaling so neither dimension
// exceeds maxDim when maxDim is positive. Normalize never upscales.
func Normalize(src image.Image, maxDim int) *image.RGBA {
	if src == nil {
		return nil
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil
	}

	newW, newH := width, height
	if maxDim > 0 && (width > maxDim || height > maxDim) {
		scale := float64(maxDim) / float64(max(width, height))
		newW = max(1, int(float64(width)*scale))
		newH = max(1, int(float64(height)*scale))
	}

	if newW == width && newH == height {
		if rgba, ok := src.(*image.RGBA); ok {
			return rgba
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Copy(dst, image.Point{}, src, bounds, draw.Src, nil)
		return dst
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
