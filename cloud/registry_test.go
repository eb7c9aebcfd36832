package cloud

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, path string) *Registry {
	t.Helper()
	r, err := NewRecognizer(DefaultOptions())
	require.NoError(t, err)
	return NewRegistry(r, nil, path)
}

func TestRegistry_LearnPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.json.zst")
	reg := newTestRegistry(t, path)

	n, err := reg.Learn("circle", strokeCircle(0, 0, 5, 40))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = reg.Learn("circle", strokeCircle(1, 1, 2, 30))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Count("circle"))
	assert.Equal(t, []LabelCount{{Label: "circle", Count: 2}}, reg.Labels())
}

func TestRegistry_LearnInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.json")
	reg := newTestRegistry(t, path)

	_, err := reg.Learn("dot", []SamplePoint{{X: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, reg.Len())

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Empty(t, lib.Gestures, "nothing saved for a rejected sample")
}

func TestRegistry_RecognizeKeepsLast(t *testing.T) {
	reg := newTestRegistry(t, "")

	_, ok := reg.Last()
	assert.False(t, ok)

	_, err := reg.Learn("zigzag", strokeZigzag(6))
	require.NoError(t, err)
	_, err = reg.Learn("circle", strokeCircle(0, 0, 5, 40))
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		reg.SetWorkers(workers)
		res, err := reg.Recognize(context.Background(), jitter(strokeCircle(0, 0, 5, 40), 0.2, 8))
		require.NoError(t, err)
		assert.Equal(t, "circle", res.Label)

		last, ok := reg.Last()
		require.True(t, ok)
		assert.Equal(t, res, last)
	}

	tmpl, ok := reg.Template(1)
	require.True(t, ok)
	assert.Equal(t, "circle", tmpl.Label)
	assert.Equal(t, VariantAngle, reg.Options().Variant)
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	reg := newTestRegistry(t, "")
	_, err := reg.Learn("circle", strokeCircle(0, 0, 5, 40))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := reg.Learn("zigzag", strokeZigzag(6))
			assert.NoError(t, err)
		}()
		go func(seed int64) {
			defer wg.Done()
			_, err := reg.Recognize(context.Background(), jitter(strokeCircle(0, 0, 5, 40), 0.1, seed))
			assert.NoError(t, err)
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 9, reg.Len())
	assert.Equal(t, []LabelCount{{"circle", 1}, {"zigzag", 8}}, reg.Labels())
}

func TestRegistry_RecognizeHonorsContext(t *testing.T) {
	reg := newTestRegistry(t, "")
	_, err := reg.Learn("circle", strokeCircle(0, 0, 5, 40))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 2} {
		reg.SetWorkers(workers)
		_, err := reg.Recognize(ctx, strokeCircle(0, 0, 5, 40))
		assert.ErrorIs(t, err, context.Canceled, "workers=%d", workers)
	}
	_, ok := reg.Last()
	assert.False(t, ok, "cancelled recognitions are not remembered")
}
