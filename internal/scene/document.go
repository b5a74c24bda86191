package scene

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/imamik/funcanvas/internal/object"
	"github.com/imamik/funcanvas/internal/picture"
)

// DocumentVersion tags the serialized scene format.
const DocumentVersion = "1"

// Document is the serialized form of a canvas.
type Document struct {
	Version    string            `json:"version"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	Background string            `json:"background,omitempty"`
	Objects    []json.RawMessage `json:"objects"`
}

// MarshalJSON writes the objects bottom to top.
func (c *Canvas) MarshalJSON() ([]byte, error) {
	doc := Document{
		Version:    DocumentVersion,
		Width:      c.logical.Width,
		Height:     c.logical.Height,
		Background: c.background,
		Objects:    make([]json.RawMessage, 0, len(c.objects)),
	}
	for _, obj := range c.objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", obj.Type(), err)
		}
		doc.Objects = append(doc.Objects, raw)
	}
	return json.Marshal(doc)
}

// Load replaces the canvas content with a serialized scene. Pictures are
// decoded concurrently and the scene is only swapped in once all of them have
// loaded, so a failure leaves the canvas unchanged.
func (c *Canvas) Load(ctx context.Context, raw []byte) error {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode scene: %w", err)
	}
	if doc.Width != 0 && (doc.Width != c.logical.Width || doc.Height != c.logical.Height) {
		c.logger.Warn("scene size differs from canvas",
			"scene", fmt.Sprintf("%gx%g", doc.Width, doc.Height),
			"canvas", fmt.Sprintf("%gx%g", c.logical.Width, c.logical.Height))
	}

	objs := make([]object.Object, 0, len(doc.Objects))
	var pending []*picture.Picture
	for i, item := range doc.Objects {
		typ, err := object.PeekType(item)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		if typ == object.TypeImage {
			p, err := picture.FromDocument(ctx, c.decoder, c.reg, item, picture.Options{Logger: c.logger})
			if err != nil {
				return fmt.Errorf("object %d: %w", i, err)
			}
			pending = append(pending, p)
			objs = append(objs, p)
			continue
		}
		obj, err := object.Decode(item)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		objs = append(objs, obj)
	}

	for _, p := range pending {
		if err := p.Wait(ctx); err != nil {
			for _, q := range pending {
				q.Detach()
			}
			return fmt.Errorf("failed to load scene image: %w", err)
		}
	}

	c.Clear()
	if doc.Background != "" {
		c.background = doc.Background
	}
	return c.Add(objs...)
}
