package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxAssetBytes = 4 << 20

var (
	ErrAssetNotConfigured = errors.New("asset_not_configured")
	ErrAssetTooLarge      = errors.New("asset_too_large")
)

// AssetLoader reads header images from disk or over HTTP and normalizes
// them to 8-bit PNG so the PDF encoder accepts every source format.
type AssetLoader struct {
	client  *http.Client
	timeout time.Duration
}

func NewAssetLoader(timeout time.Duration) *AssetLoader {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AssetLoader{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Load returns PNG bytes for source, a file path or an http(s) URL.
func (l *AssetLoader) Load(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrAssetNotConfigured
	}

	var raw []byte
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		raw, err = l.fetch(ctx, source)
	} else {
		raw, err = readFile(source)
	}
	if err != nil {
		return nil, err
	}
	return normalize(raw)
}

func (l *AssetLoader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset: unexpected status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxAssetBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetBytes {
		return nil, ErrAssetTooLarge
	}
	return data, nil
}

func normalize(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encode asset: %w", err)
	}
	return buf.Bytes(), nil
}

// FailureReason buckets asset errors for the fallback counter.
func FailureReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, fs.ErrNotExist):
		return "not_found"
	case errors.Is(err, ErrAssetTooLarge):
		return "too_large"
	case errors.Is(err, image.ErrFormat):
		return "decode"
	default:
		return "unavailable"
	}
}
