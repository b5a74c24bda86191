package picture

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
)

// Decoder turns a source reference into a raster.
type Decoder interface {
	Decode(ctx context.Context, src string) (image.Image, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(ctx context.Context, src string) (image.Image, error)

func (f DecoderFunc) Decode(ctx context.Context, src string) (image.Image, error) { return f(ctx, src) }

// FileDecoder reads file paths and data URLs, honoring EXIF orientation.
type FileDecoder struct{}

func (FileDecoder) Decode(ctx context.Context, src string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.HasPrefix(src, "data:") {
		data, err := parseDataURL(src)
		if err != nil {
			return nil, err
		}
		return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	}
	return imaging.Open(src, imaging.AutoOrientation(true))
}

func parseDataURL(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to decode data URL: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return []byte(s), nil
}

// DecodeError reports a source that could not be read as an image.
type DecodeError struct {
	Src string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", shorten(e.Src), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SetupError reports a filter that could not be built while loading.
type SetupError struct {
	Type string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to set up %s filter: %v", e.Type, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

func shorten(src string) string {
	if len(src) > 64 {
		return src[:61] + "..."
	}
	return src
}
