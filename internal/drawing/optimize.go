// Package drawing re-anchors connectors in a diagram document so that each
// arrow or line bound on both ends runs from the centre of an edge of its
// start shape to the centre of an edge of its end shape.
//
// The input is loose text expected to contain a JSON array of elements,
// possibly wrapped in prose or a code fence. Optimize never fails: anything
// it cannot parse is returned unchanged. Callers that need to know why use
// OptimizeDetailed and inspect Result.Err or Report.Status.
package drawing

import (
	"encoding/json"
	"errors"

	"github.com/charmbracelet/log"

	"edgealign/internal/domain"
)

// Status summarizes the outcome of a pass.
type Status string

const (
	StatusOptimized   Status = "optimized"
	StatusUnchanged   Status = "unchanged"
	StatusEmpty       Status = "empty"
	StatusNoArray     Status = "no-array"
	StatusInvalidJSON Status = "invalid-json"
	StatusNotArray    Status = "not-array"
)

// Failed reports whether the input was returned untouched because it could
// not be parsed.
func (s Status) Failed() bool {
	switch s {
	case StatusNoArray, StatusInvalidJSON, StatusNotArray:
		return true
	}
	return false
}

// Change describes one rewritten connector.
type Change struct {
	Index      int                `json:"index"`
	ID         string             `json:"id"`
	Type       domain.ElementType `json:"type"`
	Aligned    bool               `json:"aligned"`
	StartSide  domain.Side        `json:"startSide,omitempty"`
	EndSide    domain.Side        `json:"endSide,omitempty"`
	WidthFixed bool               `json:"widthFixed"`
	Before     domain.Geometry    `json:"before"`
	After      domain.Geometry    `json:"after"`
}

// Report counts what a pass looked at and what it changed.
type Report struct {
	Status     Status   `json:"status"`
	Elements   int      `json:"elements"`
	Connectors int      `json:"connectors"`
	Aligned    int      `json:"aligned"`
	WidthFixed int      `json:"widthFixed"`
	Unbound    int      `json:"unbound"`
	Changes    []Change `json:"changes"`
}

// Rewritten is the number of connectors whose geometry was changed.
func (r Report) Rewritten() int {
	return len(r.Changes)
}

// Result is the output of a pass. Text is always usable: it is the
// optimized document, or the input itself when Err is set.
type Result struct {
	Text   string
	Report Report
	Err    error
}

// Optimizer runs the connector alignment pass. The zero value is ready to
// use and logs to the default logger.
type Optimizer struct {
	logger *log.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var defaultOptimizer = New()

// Optimize aligns the connectors in text and returns the pretty-printed
// document, or text unchanged when no element array can be parsed from it.
func Optimize(text string) string {
	return defaultOptimizer.Optimize(text).Text
}

// OptimizeDetailed is Optimize with the report and failure reason.
func OptimizeDetailed(text string) Result {
	return defaultOptimizer.Optimize(text)
}

// Optimize runs one pass over text. It is safe for concurrent use.
func (o *Optimizer) Optimize(text string) Result {
	if text == "" {
		return Result{Text: text, Report: Report{Status: StatusEmpty}}
	}

	span, err := extractArray(text)
	if err != nil {
		return o.fail(text, StatusNoArray, err)
	}
	raws, err := decodeArray(span)
	if err != nil {
		status := StatusInvalidJSON
		if errors.Is(err, ErrNotArray) {
			status = StatusNotArray
		}
		return o.fail(text, status, err)
	}

	elements := make([]domain.Element, len(raws))
	for i, raw := range raws {
		elements[i] = decodeElement(raw)
	}
	shapes := indexShapes(elements)

	report := Report{Elements: len(raws), Changes: []Change{}}
	out := make([]json.RawMessage, len(raws))
	for i, el := range elements {
		out[i] = raws[i]
		if el == nil || !el.IsConnector() {
			continue
		}
		report.Connectors++

		change, fields := alignConnector(el, shapes)
		change.Index = i
		if !change.Aligned {
			report.Unbound++
		}
		if len(fields) == 0 {
			continue
		}

		rewritten, err := rewriteFields(raws[i], fields)
		if err != nil {
			o.log().Warn("optimize: connector left as-is", "index", i, "id", change.ID, "err", err)
			continue
		}
		out[i] = rewritten
		if change.Aligned {
			report.Aligned++
		}
		if change.WidthFixed {
			report.WidthFixed++
		}
		report.Changes = append(report.Changes, change)
		o.log().Debug("optimize: connector rewritten",
			"id", change.ID,
			"start", change.StartSide,
			"end", change.EndSide,
			"before", change.Before,
			"after", change.After,
		)
	}

	encoded, err := encodeArray(out)
	if err != nil {
		return o.fail(text, StatusInvalidJSON, err)
	}

	report.Status = StatusUnchanged
	if report.Rewritten() > 0 {
		report.Status = StatusOptimized
	}
	return Result{Text: encoded, Report: report}
}

func (o *Optimizer) fail(text string, status Status, err error) Result {
	o.log().Warn("optimize: input returned unchanged", "status", status, "err", err)
	return Result{Text: text, Report: Report{Status: status}, Err: err}
}

func (o *Optimizer) log() *log.Logger {
	if o.logger != nil {
		return o.logger
	}
	return log.Default()
}

// indexShapes maps element ids to elements. Later duplicates win.
func indexShapes(elements []domain.Element) map[any]domain.Element {
	shapes := make(map[any]domain.Element, len(elements))
	for _, el := range elements {
		if el == nil {
			continue
		}
		if key, ok := el.Key(); ok {
			shapes[key] = el
		}
	}
	return shapes
}

func resolveBinding(el domain.Element, b domain.Binding, shapes map[any]domain.Element) domain.Element {
	key, ok := el.BindingKey(b)
	if !ok {
		return nil
	}
	return shapes[key]
}

// alignConnector computes the new geometry of a connector and the fields
// that must be written for it. No fields means the connector is kept as-is.
func alignConnector(el domain.Element, shapes map[any]domain.Element) (Change, []field) {
	before := el.Geometry()
	change := Change{
		ID:     el.ID(),
		Type:   el.Type(),
		Before: before,
		After:  before,
	}

	var fields []field
	start := resolveBinding(el, domain.BindingStart, shapes)
	end := resolveBinding(el, domain.BindingEnd, shapes)
	if start != nil && end != nil {
		ends := Align(start.Bounds(), end.Bounds())
		change.Aligned = true
		change.StartSide = ends.StartSide
		change.EndSide = ends.EndSide
		change.After = ends.Geometry()
		fields = append(fields,
			field{"x", change.After.X},
			field{"y", change.After.Y},
			field{"width", change.After.Width},
			field{"height", change.After.Height},
		)
	}

	// Zero-width connectors do not render in the editor.
	width, hasWidth := el.Number("width")
	if change.Aligned {
		width, hasWidth = change.After.Width, true
	}
	if hasWidth && width == 0 {
		change.WidthFixed = true
		change.After.Width = 1
		if change.Aligned {
			fields[2].value = 1
		} else {
			fields = append(fields, field{"width", 1})
		}
	}

	return change, fields
}
