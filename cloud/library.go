package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// GestureSample is one labeled raw recording.
type GestureSample struct {
	Label  string        `json:"label"`
	Points []SamplePoint `json:"points"`
}

// Library is the on-disk template collection. It stores raw samples rather
// than normalized clouds because the point count belongs to the recognizer.
type Library struct {
	Gestures    []GestureSample `json:"gestures"`
	LastUpdated int64           `json:"lastUpdated"`
}

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// LoadLibrary reads a library from path. Plain JSON and zstd-compressed JSON
// are both accepted. A missing file yields an empty library.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Library{}, nil
		}
		return nil, fmt.Errorf("reading library file: %w", err)
	}
	return DecodeLibrary(data)
}

// DecodeLibrary parses library bytes, inflating them first when they carry
// the zstd frame magic.
func DecodeLibrary(data []byte) (*Library, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("inflating library: %w", err)
		}
	}

	var lib Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing library file: %w", err)
	}
	return &lib, nil
}

// SaveLibrary writes lib to path, compressing with zstd when the path ends
// in ".zst".
func SaveLibrary(path string, lib *Library) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating library directory: %w", err)
	}

	lib.LastUpdated = time.Now().Unix()

	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling library: %w", err)
	}

	if strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return fmt.Errorf("closing zstd writer: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing library file: %w", err)
	}
	return nil
}

// Add appends a sample and returns how many samples now carry label.
func (l *Library) Add(label string, points []SamplePoint) int {
	cp := make([]SamplePoint, len(points))
	copy(cp, points)
	l.Gestures = append(l.Gestures, GestureSample{Label: label, Points: cp})
	return l.Count(label)
}

// Count returns the number of samples carrying label.
func (l *Library) Count(label string) int {
	num := 0
	for _, g := range l.Gestures {
		if g.Label == label {
			num++
		}
	}
	return num
}

// Remove deletes every sample carrying label and returns how many went.
func (l *Library) Remove(label string) int {
	kept := l.Gestures[:0]
	removed := 0
	for _, g := range l.Gestures {
		if g.Label == label {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	l.Gestures = kept
	return removed
}

// Labels returns the distinct labels in order of first appearance.
func (l *Library) Labels() []string {
	seen := make(map[string]bool)
	var labels []string
	for _, g := range l.Gestures {
		if !seen[g.Label] {
			seen[g.Label] = true
			labels = append(labels, g.Label)
		}
	}
	return labels
}

// Populate adds every sample to r in file order. Samples that cannot be
// normalized are skipped with a warning. It returns the number added.
func (l *Library) Populate(r *Recognizer) (int, error) {
	added := 0
	for i, g := range l.Gestures {
		if _, err := r.AddGesture(g.Label, g.Points); err != nil {
			log.Printf("Warning: skipping library sample %d (%s): %v", i, g.Label, err)
			continue
		}
		added++
	}
	if added == 0 && len(l.Gestures) > 0 {
		return 0, fmt.Errorf("none of the %d library samples could be normalized", len(l.Gestures))
	}
	return added, nil
}
