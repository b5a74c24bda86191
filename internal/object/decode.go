package object

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownType = errors.New("unknown object type")

var constructors = map[string]func() Object{
	TypeRect:      func() Object { return &Rect{Base: NewBase()} },
	TypeCircle:    func() Object { return &Circle{Base: NewBase()} },
	TypeText:      func() Object { return &Text{Base: NewBase(), FontSize: 100, FontFamily: "Arial"} },
	TypePath:      func() Object { return &Path{Base: NewBase()} },
	TypeWatermark: func() Object { return &Watermark{Base: NewBase()} },
}

// PeekType reads the type tag of a serialized object.
func PeekType(raw []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", fmt.Errorf("failed to read object type: %w", err)
	}
	return head.Type, nil
}

// Decode rebuilds a synchronous object from its serialized form.
func Decode(raw []byte) (Object, error) {
	typ, err := PeekType(raw)
	if err != nil {
		return nil, err
	}
	mk, ok := constructors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	obj := mk()
	if err := json.Unmarshal(raw, obj); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", typ, err)
	}
	switch o := obj.(type) {
	case *Text:
		o.Measure()
	case *Circle:
		o.setRadius(o.Radius)
	}
	obj.Common().SetCoords()
	return obj, nil
}
