package picture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// Tag is one EXIF entry of an image source.
type Tag struct {
	IFD   string `json:"ifd"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReadTags returns the EXIF tags of a file path or data URL. Sources without
// EXIF data have no tags.
func ReadTags(ctx context.Context, src string) ([]Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src, "data:") {
		data, err = parseDataURL(src)
	} else {
		data, err = os.ReadFile(src) //nolint:gosec // caller-provided image path
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", shorten(src), err)
	}

	raw, err := exif.SearchAndExtractExif(data)
	if errors.Is(err, exif.ErrNoExif) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find EXIF data: %w", err)
	}
	entries, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EXIF data: %w", err)
	}

	tags := make([]Tag, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, Tag{IFD: e.IfdPath, Name: e.TagName, Value: e.Formatted})
	}
	return tags, nil
}
