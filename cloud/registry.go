package cloud

import (
	"context"
	"log"
	"sync"
)

// LabelCount is a label with the number of templates stored under it.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Registry guards a Recognizer and its Library for use from MQTT and HTTP
// handlers: learning takes the write lock, recognition the read lock.
type Registry struct {
	mu          sync.RWMutex
	recognizer  *Recognizer
	library     *Library
	libraryPath string // empty disables persistence
	workers     int    // anything but 1 uses RecognizeConcurrent

	lastMu sync.RWMutex
	last   *Result
}

// NewRegistry wraps r. lib may be nil, in which case learned samples are
// kept in memory only.
func NewRegistry(r *Recognizer, lib *Library, libraryPath string) *Registry {
	if lib == nil {
		lib = &Library{}
	}
	return &Registry{
		recognizer:  r,
		library:     lib,
		libraryPath: libraryPath,
		workers:     1,
	}
}

// SetWorkers sets the number of goroutines used per recognition; 0 means
// one per CPU.
func (g *Registry) SetWorkers(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.workers = n
}

// Learn adds a template and records the sample in the library, saving it
// when a library path is configured.
func (g *Registry) Learn(label string, points []SamplePoint) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	count, err := g.recognizer.AddGesture(label, points)
	if err != nil {
		return 0, err
	}
	g.library.Add(label, points)

	if g.libraryPath != "" {
		if err := SaveLibrary(g.libraryPath, g.library); err != nil {
			log.Printf("Warning: failed to save library %s: %v", g.libraryPath, err)
		}
	}
	return count, nil
}

// Recognize classifies points and remembers the result.
func (g *Registry) Recognize(ctx context.Context, points []SamplePoint) (Result, error) {
	g.mu.RLock()
	var (
		res Result
		err error
	)
	if g.workers != 1 {
		res, err = g.recognizer.RecognizeConcurrent(ctx, points, g.workers)
	} else {
		res, err = g.recognizer.RecognizeContext(ctx, points)
	}
	g.mu.RUnlock()
	if err != nil {
		return Result{}, err
	}

	g.lastMu.Lock()
	g.last = &res
	g.lastMu.Unlock()
	return res, nil
}

// Last returns the most recent recognition result.
func (g *Registry) Last() (Result, bool) {
	g.lastMu.RLock()
	defer g.lastMu.RUnlock()
	if g.last == nil {
		return Result{}, false
	}
	return *g.last, true
}

// Len returns the number of stored templates.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.recognizer.Len()
}

// Options returns the recognizer settings.
func (g *Registry) Options() Options {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.recognizer.Options()
}

// Template returns the stored template at index i.
func (g *Registry) Template(i int) (Template, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.recognizer.Template(i)
}

// Labels returns every label with its template count, in insertion order.
func (g *Registry) Labels() []LabelCount {
	g.mu.RLock()
	defer g.mu.RUnlock()
	labels := g.recognizer.Labels()
	out := make([]LabelCount, len(labels))
	for i, l := range labels {
		out[i] = LabelCount{Label: l, Count: g.recognizer.Count(l)}
	}
	return out
}
