package plot

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectral-signatures/signature"
)

func newSignature(t *testing.T, id string, level float64, indices []float64) *signature.Signature {
	t.Helper()

	values := make([]float64, signature.BandCount)
	cr := make([]float64, signature.FirstIndexBand-1)
	for i := 0; i < signature.FirstIndexBand-1; i++ {
		values[i] = level + float64(i)*0.01
		cr[i] = 0.9 + float64(i)*0.005
	}
	indexValues := make([]float64, signature.BandCount)
	copy(indexValues[signature.FirstIndexBand-1:], indices)

	sig, err := signature.CreateFromArray(values, id, signature.CategoryGoldExploration,
		signature.CreateOptions{ContinuumRemoved: cr, IndexValues: indexValues})
	require.NoError(t, err)
	return sig
}

func TestRenderSignature(t *testing.T) {
	t.Parallel()

	sig := newSignature(t, "high_gold", 0.234, []float64{220, 180, 150, 250, 170, 140})

	for _, kind := range []signature.ValueKind{signature.Reflectance, signature.ContinuumRemoved, signature.Index} {
		img := RenderSignature(sig, kind, Options{ShowIndices: true, ShowContinuumRemoved: true})
		require.NotNil(t, img)
		assert.Equal(t, defaultWidth, img.Bounds().Dx())
		assert.Equal(t, defaultHeight, img.Bounds().Dy())
	}

	small := RenderSignature(sig, signature.Reflectance, Options{Width: 400, Height: 300})
	assert.Equal(t, 400, small.Bounds().Dx())
}

func TestRenderSurvivesDegenerateInput(t *testing.T) {
	t.Parallel()

	empty := &signature.Signature{ID: "empty"}
	flat, err := signature.CreateFromArray(make([]float64, signature.BandCount), "flat", signature.CategoryOther, signature.CreateOptions{})
	require.NoError(t, err)
	odd := flat.Clone()
	odd.Bands[0].Reflectance = signature.Some(math.NaN())
	odd.Bands[1].Reflectance = signature.Some(math.Inf(1))
	odd.Bands[2].Number = 40

	assert.NotPanics(t, func() {
		RenderSignature(empty, signature.Reflectance, Options{ShowIndices: true})
		RenderSignature(flat, signature.Index, Options{})
		RenderSignature(odd, signature.Reflectance, Options{ShowContinuumRemoved: true})
		RenderMultiple(nil, signature.Reflectance, nil)
		RenderMultiple([]*signature.Signature{empty, flat, odd}, signature.ContinuumRemoved, []string{"only one"})
		RenderGoldPathfinders(nil, nil)
		RenderGoldPathfinders([]*signature.Signature{empty, flat}, nil)
	})
}

func TestRenderMultipleAndPathfinders(t *testing.T) {
	t.Parallel()

	sigs := make([]*signature.Signature, 0, 12)
	for i := 0; i < 12; i++ {
		sigs = append(sigs, newSignature(t, "sig", 0.1+float64(i)*0.02, []float64{float64(i), 2, 3, 4, 5, -6}))
	}

	img := RenderMultiple(sigs, signature.Reflectance, []string{"High Gold", "Background"})
	assert.Equal(t, defaultWidth, img.Bounds().Dx())

	bars := RenderGoldPathfinders(sigs[:2], []string{"High Gold", "Background"})
	assert.Equal(t, 900, bars.Bounds().Dx())

	assert.Equal(t, []string{"High Gold", "sig"}, labelsFor(sigs[:2], []string{"High Gold"}))
}

func TestSavePNG(t *testing.T) {
	t.Parallel()

	sig := newSignature(t, "high_gold", 0.234, []float64{220, 180, 150, 250, 170, 140})
	path := filepath.Join(t.TempDir(), "plots", "nested", "high_gold.png")
	require.NoError(t, SavePNG(RenderSignature(sig, signature.Reflectance, Options{}), path))

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	decoded, err := png.Decode(fh)
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, decoded.Bounds().Dx())
}

func TestCanvasMapsDataToPixels(t *testing.T) {
	t.Parallel()

	c := newCanvas(200, 100, 0, 10, 0, 1)
	assert.Equal(t, c.area.Min.X, c.px(0))
	assert.Equal(t, c.area.Max.X, c.px(10))
	assert.Equal(t, c.area.Max.Y, c.py(0))
	assert.Equal(t, c.area.Min.Y, c.py(1))

	// Degenerate ranges are widened instead of dividing by zero.
	d := newCanvas(200, 100, 5, 5, 2, 2)
	assert.Equal(t, 6.0, d.xMax)
	assert.Equal(t, 3.0, d.yMax)
}
