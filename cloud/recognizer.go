package cloud

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Recognizer holds an append-only template store and classifies samples
// against it. It is not safe for concurrent AddGesture and Recognize calls;
// use a Registry for that.
type Recognizer struct {
	opts      Options
	templates []Template
}

// NewRecognizer validates opts, filling zero LUT/int-coordinate settings
// with their defaults.
func NewRecognizer(opts Options) (*Recognizer, error) {
	if opts.Variant == "" {
		opts.Variant = VariantAngle
	}
	if opts.LUTSize == 0 {
		opts.LUTSize = DefaultLUTSize
	}
	if opts.MaxIntCoord == 0 {
		opts.MaxIntCoord = DefaultMaxIntCoord
	}

	if !opts.Variant.Valid() {
		return nil, fmt.Errorf("unknown variant %q", opts.Variant)
	}
	if opts.NumPoints < 3 {
		return nil, fmt.Errorf("numPoints must be at least 3, got %d", opts.NumPoints)
	}
	if opts.LUTSize < 1 {
		return nil, fmt.Errorf("lutSize must be positive, got %d", opts.LUTSize)
	}
	if opts.MaxIntCoord < opts.LUTSize {
		return nil, fmt.Errorf("maxIntCoord (%d) must not be below lutSize (%d)", opts.MaxIntCoord, opts.LUTSize)
	}

	return &Recognizer{opts: opts}, nil
}

// Options returns the settings the recognizer was built with.
func (r *Recognizer) Options() Options {
	return r.opts
}

// NewTemplate runs the full normalization and augmentation pipeline.
func (r *Recognizer) NewTemplate(label string, samples []SamplePoint) (Template, error) {
	points, err := Normalize(samples, r.opts.NumPoints)
	if err != nil {
		return Template{}, err
	}

	t := Template{Label: label}
	switch r.opts.Variant {
	case VariantAngle:
		t.Points = ComputeTurningAngles(points)
	case VariantQuantized:
		t.Points = MakeIntCoords(points, r.opts.MaxIntCoord)
		t.LUT = BuildLUT(t.Points, r.opts.LUTSize, r.opts.MaxIntCoord)
	}
	return t, nil
}

// AddGesture stores a new template and returns how many stored templates
// now share label. Nothing is stored when normalization fails.
func (r *Recognizer) AddGesture(label string, samples []SamplePoint) (int, error) {
	t, err := r.NewTemplate(label, samples)
	if err != nil {
		return 0, err
	}
	r.templates = append(r.templates, t)
	return r.Count(label), nil
}

// Count returns the number of templates stored under label.
func (r *Recognizer) Count(label string) int {
	num := 0
	for i := range r.templates {
		if r.templates[i].Label == label {
			num++
		}
	}
	return num
}

// Len returns the number of stored templates.
func (r *Recognizer) Len() int {
	return len(r.templates)
}

// Templates returns a copy of the stored templates in insertion order.
func (r *Recognizer) Templates() []Template {
	out := make([]Template, len(r.templates))
	copy(out, r.templates)
	return out
}

// Template returns the template at index i.
func (r *Recognizer) Template(i int) (Template, bool) {
	if i < 0 || i >= len(r.templates) {
		return Template{}, false
	}
	return r.templates[i], true
}

// Labels returns the distinct labels in order of first insertion.
func (r *Recognizer) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, t := range r.templates {
		if !seen[t.Label] {
			seen[t.Label] = true
			labels = append(labels, t.Label)
		}
	}
	return labels
}

// Recognize classifies samples against every stored template in insertion
// order. The running best distance is handed to each comparison so later
// templates can abandon early. Ties keep the earliest template.
func (r *Recognizer) Recognize(samples []SamplePoint) (Result, error) {
	return r.RecognizeContext(context.Background(), samples)
}

// RecognizeContext is Recognize with cancellation checked before each
// template comparison.
func (r *Recognizer) RecognizeContext(ctx context.Context, samples []SamplePoint) (Result, error) {
	start := time.Now()
	candidate, err := r.NewTemplate("", samples)
	if err != nil {
		return Result{}, err
	}

	u := -1
	b := math.Inf(1)
	for i := range r.templates {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		d := r.distance(&candidate, &r.templates[i], b)
		if d < b {
			b = d
			u = i
		}
	}
	return r.result(u, b, time.Since(start)), nil
}

// distance dispatches to the variant's matcher.
func (r *Recognizer) distance(candidate, template *Template, minSoFar float64) float64 {
	if r.opts.Variant == VariantQuantized {
		return CloudMatch(candidate, template, minSoFar)
	}
	return coverMatch(candidate.Points, template.Points, minSoFar)
}

func (r *Recognizer) result(u int, b float64, elapsed time.Duration) Result {
	scored := r.opts.Variant == VariantAngle
	if u == -1 {
		return Result{Label: NoMatch, Index: -1, Scored: scored, Elapsed: elapsed}
	}
	res := Result{
		Label:    r.templates[u].Label,
		Index:    u,
		Distance: b,
		Scored:   scored,
		Elapsed:  elapsed,
	}
	if scored {
		res.Score = ScoreFromDistance(b)
	}
	return res
}

// ScoreFromDistance maps a distance to (0, 1]; anything at or below 1 is a
// perfect score.
func ScoreFromDistance(b float64) float64 {
	if b <= 1 {
		return 1
	}
	return 1 / b
}
