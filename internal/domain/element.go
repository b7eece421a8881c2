package domain

import "fmt"

// ElementType is the "type" tag of a drawing element.
type ElementType string

const (
	ElementTypeArrow     ElementType = "arrow"
	ElementTypeLine      ElementType = "line"
	ElementTypeRectangle ElementType = "rectangle"
	ElementTypeEllipse   ElementType = "ellipse"
	ElementTypeDiamond   ElementType = "diamond"
	ElementTypeText      ElementType = "text"
)

// DefaultShapeSize is used for a bound shape whose width or height is
// missing, zero or not a number.
const DefaultShapeSize = 100.0

// Element is a single drawing element as decoded from the document.
// The editor owns the schema, so elements stay loosely typed and only the
// fields the optimizer reads have accessors.
type Element map[string]any

// Binding names one end of a connector.
type Binding string

const (
	BindingStart Binding = "start"
	BindingEnd   Binding = "end"
)

// Type returns the element's type tag, or "" when absent or not a string.
func (e Element) Type() ElementType {
	t, _ := e["type"].(string)
	return ElementType(t)
}

// IsConnector reports whether the element is an arrow or a line.
func (e Element) IsConnector() bool {
	switch e.Type() {
	case ElementTypeArrow, ElementTypeLine:
		return true
	}
	return false
}

// Key returns the element's id as a lookup key. Ids are usually strings but
// any truthy JSON scalar is accepted; ok is false for missing or falsy ids.
func (e Element) Key() (any, bool) {
	return truthyKey(e["id"])
}

// ID renders the element id for logs and reports.
func (e Element) ID() string {
	switch v := e["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// BindingKey returns the id referenced by the connector's start or end
// binding. The binding must be an object carrying a truthy id.
func (e Element) BindingKey(b Binding) (any, bool) {
	obj, ok := e[string(b)].(map[string]any)
	if !ok {
		return nil, false
	}
	return truthyKey(obj["id"])
}

// Number returns a numeric attribute. ok is false when the attribute is
// missing or not a JSON number.
func (e Element) Number(name string) (float64, bool) {
	v, ok := e[name].(float64)
	return v, ok
}

// Bounds returns the element's bounding rectangle. Falsy coordinates
// default to 0 and falsy sizes to DefaultShapeSize.
func (e Element) Bounds() Rect {
	return Rect{
		X: e.numberOr("x", 0),
		Y: e.numberOr("y", 0),
		W: e.numberOr("width", DefaultShapeSize),
		H: e.numberOr("height", DefaultShapeSize),
	}
}

// Geometry returns the connector's own anchor and extent as stored.
func (e Element) Geometry() Geometry {
	x, _ := e.Number("x")
	y, _ := e.Number("y")
	w, _ := e.Number("width")
	h, _ := e.Number("height")
	return Geometry{X: x, Y: y, Width: w, Height: h}
}

// Clone returns a shallow copy of the element.
func (e Element) Clone() Element {
	out := make(Element, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func (e Element) numberOr(name string, def float64) float64 {
	if v, ok := e.Number(name); ok && v != 0 {
		return v
	}
	return def
}

func truthyKey(v any) (any, bool) {
	switch id := v.(type) {
	case string:
		return id, id != ""
	case float64:
		return id, id != 0
	case bool:
		return id, id
	}
	return nil, false
}
