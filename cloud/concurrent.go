package cloud

import (
	"context"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// RecognizeConcurrent scores templates on up to workers goroutines. Each
// template is matched without a cross-template threshold, so less work is
// pruned than in Recognize; the reduction still walks insertion order with
// a strict comparison, keeping the earliest template on ties.
//
// The quantized matcher's LUT bounds may overestimate, so its result depends
// on the threshold it is handed. That variant always runs sequentially to
// return the same template Recognize would.
//
// The store must not be modified while this runs.
func (r *Recognizer) RecognizeConcurrent(ctx context.Context, samples []SamplePoint, workers int) (Result, error) {
	if r.opts.Variant == VariantQuantized {
		return r.RecognizeContext(ctx, samples)
	}

	start := time.Now()
	candidate, err := r.NewTemplate("", samples)
	if err != nil {
		return Result{}, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	distances := make([]float64, len(r.templates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range r.templates {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			distances[i] = r.distance(&candidate, &r.templates[i], math.Inf(1))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	u := -1
	b := math.Inf(1)
	for i, d := range distances {
		if d < b {
			b = d
			u = i
		}
	}
	return r.result(u, b, time.Since(start)), nil
}
