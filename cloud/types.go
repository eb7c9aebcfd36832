package cloud

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// SamplePoint is one raw observation from a recording.
// Path groups points belonging to the same continuous pen/finger path.
type SamplePoint struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Z    float64 `json:"z" yaml:"z"`
	Path int     `json:"path" yaml:"path"`
}

// Point is a normalized cloud point. Angle is only filled by the angle
// variant; IX/IY/IZ only by the quantized variant.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Path  int     `json:"path"`
	Angle float64 `json:"angle,omitempty"`
	IX    int     `json:"ix,omitempty"`
	IY    int     `json:"iy,omitempty"`
	IZ    int     `json:"iz,omitempty"`
}

// Vec returns the spatial part of p.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// withVec returns a copy of p moved to v, keeping the path identifier and
// dropping any derived features.
func (p Point) withVec(v r3.Vec) Point {
	return Point{X: v.X, Y: v.Y, Z: v.Z, Path: p.Path}
}

// Variant selects the feature augmentation and matcher pair.
type Variant string

const (
	// VariantAngle matches with greedy coverage over (x, y, z, turning angle).
	VariantAngle Variant = "angle"
	// VariantQuantized matches with weighted sequential assignment and LUT pruning.
	VariantQuantized Variant = "quantized"
)

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	return v == VariantAngle || v == VariantQuantized
}

// Template is a labeled, normalized cloud. LUT is nil for the angle variant.
type Template struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
	LUT    *LUT    `json:"-"`
}

// NoMatch is the label reported when the template store is empty.
const NoMatch = "No match"

// Result is the outcome of a recognition.
// Scored is only true for the angle variant; the quantized variant reports
// a label and a distance but no confidence score.
type Result struct {
	Label    string        `json:"label"`
	Index    int           `json:"index"`
	Distance float64       `json:"distance"`
	Score    float64       `json:"score"`
	Scored   bool          `json:"scored"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Matched returns true if the result refers to a stored template.
func (r Result) Matched() bool {
	return r.Index >= 0
}

// Options are fixed for the lifetime of a Recognizer.
type Options struct {
	NumPoints   int     `yaml:"numPoints" json:"numPoints"`
	Variant     Variant `yaml:"variant" json:"variant"`
	LUTSize     int     `yaml:"lutSize,omitempty" json:"lutSize,omitempty"`
	MaxIntCoord int     `yaml:"maxIntCoord,omitempty" json:"maxIntCoord,omitempty"`
}

const (
	DefaultNumPoints   = 32
	DefaultLUTSize     = 16
	DefaultMaxIntCoord = 1024
)

// DefaultOptions returns the angle variant with 32 points.
func DefaultOptions() Options {
	return Options{
		NumPoints:   DefaultNumPoints,
		Variant:     VariantAngle,
		LUTSize:     DefaultLUTSize,
		MaxIntCoord: DefaultMaxIntCoord,
	}
}

// Config represents the full configuration file
type Config struct {
	Recognizer Options    `yaml:"recognizer" json:"recognizer"`
	Library    string     `yaml:"library,omitempty" json:"library,omitempty"`
	MQTT       MQTTConfig `yaml:"mqtt" json:"mqtt"`
	MinScore   float64    `yaml:"minScore,omitempty" json:"minScore,omitempty"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker         string  `yaml:"broker" json:"broker"`
	ClientID       string  `yaml:"clientId" json:"clientId"`
	Username       string  `yaml:"username,omitempty" json:"username,omitempty"`
	Password       string  `yaml:"password,omitempty" json:"password,omitempty"`
	SubscribeTopic string  `yaml:"subscribeTopic" json:"subscribeTopic"`
	LearnTopic     string  `yaml:"learnTopic,omitempty" json:"learnTopic,omitempty"`
	PublishPrefix  string  `yaml:"publishPrefix" json:"publishPrefix"`
	MaxPerSecond   float64 `yaml:"maxPerSecond,omitempty" json:"maxPerSecond,omitempty"`
}
