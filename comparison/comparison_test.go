package comparison

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectral-signatures/signature"
)

var (
	highGoldIndices   = []float64{220, 180, 150, 250, 170, 140}
	backgroundIndices = []float64{45, 35, 40, 50, 30, 25}
)

// newSyntheticSignature sets bands 1-12 to level, bands 13-18 to zero
// reflectance and attaches the six index values to bands 13-18.
func newSyntheticSignature(t *testing.T, id string, level float64, indices []float64) *signature.Signature {
	t.Helper()

	values := make([]float64, signature.BandCount)
	for i := 0; i < signature.FirstIndexBand-1; i++ {
		values[i] = level
	}
	indexValues := make([]float64, signature.BandCount)
	copy(indexValues[signature.FirstIndexBand-1:], indices)

	sig, err := signature.CreateFromArray(values, id, signature.CategoryGoldExploration,
		signature.CreateOptions{IndexValues: indexValues})
	require.NoError(t, err)
	return sig
}

func newFromValues(t *testing.T, id string, values []float64) *signature.Signature {
	t.Helper()

	sig, err := signature.CreateFromArray(values, id, signature.CategoryOther, signature.CreateOptions{})
	require.NoError(t, err)
	return sig
}

func repeat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func TestCompareFocusBands(t *testing.T) {
	t.Parallel()

	sig1 := newSyntheticSignature(t, "high_gold", 0.234, highGoldIndices)
	sig2 := newSyntheticSignature(t, "background", 0.156, backgroundIndices)

	result := Compare(sig1, sig2, []int{13, 14, 15, 16, 17, 18})
	require.Len(t, result.KeyDifferences, 6)

	for i, diff := range result.KeyDifferences {
		assert.Equal(t, 13+i, diff.BandNumber)
		assert.Greater(t, diff.Value1, diff.Value2)
		assert.InDelta(t, diff.Value1-diff.Value2, diff.Difference, 1e-9)
	}

	first := result.KeyDifferences[0]
	assert.Equal(t, "Gold_Phyllic_Sericite", first.BandName)
	assert.Equal(t, 220.0, first.Value1)
	assert.Equal(t, 45.0, first.Value2)
	assert.InDelta(t, 175.0, first.Difference, 1e-9)
	assert.InDelta(t, 79.545, first.PercentDifference, 1e-3)

	assert.InDelta(t, 0.078*math.Sqrt(12), result.EuclideanDistance, 1e-9)
	assert.InDelta(t, 1.0, result.Correlation, 1e-9)
	assert.Greater(t, result.Separability, 0.0)
	assert.LessOrEqual(t, result.Separability, 2.0)
}

func TestCompareFocusBandsSkipsMissing(t *testing.T) {
	t.Parallel()

	sig1 := newSyntheticSignature(t, "a", 0.234, highGoldIndices)
	sig2 := newSyntheticSignature(t, "b", 0.156, backgroundIndices)

	result := Compare(sig1, sig2, []int{1, 99})
	require.Len(t, result.KeyDifferences, 1)
	assert.Equal(t, 1, result.KeyDifferences[0].BandNumber)
	assert.InDelta(t, 0.078/0.234*100, result.KeyDifferences[0].PercentDifference, 1e-9)
}

func TestCompareTopDifferences(t *testing.T) {
	t.Parallel()

	sig1 := newSyntheticSignature(t, "a", 0.234, highGoldIndices)
	sig2 := newSyntheticSignature(t, "b", 0.156, backgroundIndices)

	result := Compare(sig1, sig2, nil)
	require.Len(t, result.KeyDifferences, maxKeyDifferences)
	assert.Equal(t, 16, result.KeyDifferences[0].BandNumber)
	assert.InDelta(t, 200.0, result.KeyDifferences[0].Difference, 1e-9)
	for i := 1; i < len(result.KeyDifferences); i++ {
		assert.GreaterOrEqual(t, result.KeyDifferences[i-1].Difference, result.KeyDifferences[i].Difference)
	}

	same := Compare(sig1, sig1.Clone(), nil)
	assert.Empty(t, same.KeyDifferences)
	assert.NotNil(t, same.KeyDifferences)
}

func TestCompareUsesCatalogNameWhenBandUnnamed(t *testing.T) {
	t.Parallel()

	sig1 := newSyntheticSignature(t, "a", 0.234, highGoldIndices)
	sig2 := newSyntheticSignature(t, "b", 0.156, backgroundIndices)
	sig1.BandByNumber(13).Name = ""

	result := Compare(sig1, sig2, []int{13})
	require.Len(t, result.KeyDifferences, 1)
	assert.Equal(t, "Gold_Phyllic_Sericite", result.KeyDifferences[0].BandName)
}

func TestSelfComparison(t *testing.T) {
	t.Parallel()

	sig := newSyntheticSignature(t, "a", 0.234, highGoldIndices)

	assert.Equal(t, 0.0, EuclideanDistance(sig, sig, signature.Reflectance))
	assert.InDelta(t, 1.0, Correlation(sig, sig, signature.Reflectance), 1e-9)
	assert.InDelta(t, 1.0, Correlation(sig, sig, signature.Index), 1e-9)
	assert.Equal(t, 0.0, Separability(sig, sig, signature.Reflectance))
}

func TestConstantSequencesScoreZero(t *testing.T) {
	t.Parallel()

	varied := newSyntheticSignature(t, "varied", 0.234, highGoldIndices)
	for _, level := range []float64{0.1, 0.2, 0.234, 0.3, 0.45, 0.7} {
		flat := newFromValues(t, "flat", repeat(level, signature.BandCount))
		other := newFromValues(t, "other", repeat(level/2, signature.BandCount))

		assert.Equal(t, 0.0, Correlation(flat, flat, signature.Reflectance), "self correlation at %v", level)
		assert.Equal(t, 0.0, Correlation(flat, varied, signature.Reflectance), "correlation at %v", level)
		assert.Equal(t, 0.0, Correlation(varied, flat, signature.Reflectance), "reversed correlation at %v", level)
		assert.Equal(t, 0.0, Correlation(flat, other, signature.Reflectance), "two flat correlation at %v", level)
		assert.Equal(t, 0.0, Separability(flat, varied, signature.Reflectance), "separability at %v", level)
		assert.Equal(t, 0.0, Separability(varied, flat, signature.Reflectance), "reversed separability at %v", level)
		assert.Equal(t, 0.0, Separability(flat, other, signature.Reflectance), "two flat separability at %v", level)
	}
}

func TestCorrelationDegenerateInputs(t *testing.T) {
	t.Parallel()

	single := &signature.Signature{ID: "single", Bands: []signature.Band{{Number: 1, Reflectance: signature.Some(0.5)}}}
	assert.Equal(t, 0.0, Correlation(single, single, signature.Reflectance))

	empty := &signature.Signature{ID: "empty"}
	assert.Equal(t, 0.0, Correlation(empty, empty, signature.Reflectance))
	assert.Equal(t, 0.0, EuclideanDistance(empty, empty, signature.Reflectance))
	assert.Equal(t, 0.0, Separability(empty, empty, signature.Reflectance))
}

func TestCorrelationDropsUndefinedPositions(t *testing.T) {
	t.Parallel()

	sig := newSyntheticSignature(t, "a", 0.234, highGoldIndices)
	noisy := sig.Clone()
	noisy.BandByNumber(1).Reflectance = signature.Some(math.NaN())

	assert.InDelta(t, 1.0, Correlation(sig, noisy, signature.Reflectance), 1e-9)
	assert.True(t, math.IsNaN(EuclideanDistance(sig, noisy, signature.Reflectance)))
}

func TestMetricsPadShorterSequences(t *testing.T) {
	t.Parallel()

	sig := newSyntheticSignature(t, "a", 0.234, highGoldIndices)
	short := sig.Clone()
	short.Bands = short.Bands[:signature.FirstIndexBand-1]

	assert.Equal(t, 0.0, EuclideanDistance(sig, short, signature.Reflectance))
	assert.InDelta(t, 1.0, Correlation(sig, short, signature.Reflectance), 1e-9)
}

func TestSeparabilityBounds(t *testing.T) {
	t.Parallel()

	sig := newSyntheticSignature(t, "a", 0.234, highGoldIndices)

	lowValues := repeat(0.3, signature.BandCount)
	lowValues[0] = 0.31
	highValues := repeat(0.9, signature.BandCount)
	highValues[0] = 0.91
	sep := Separability(newFromValues(t, "low", lowValues), newFromValues(t, "high", highValues), signature.Reflectance)
	assert.InDelta(t, 2.0, sep, 1e-9)
	assert.LessOrEqual(t, sep, 2.0)

	// Mean 0.156 vs 0.104, std 0.1103 vs 0.0735.
	background := newSyntheticSignature(t, "b", 0.156, backgroundIndices)
	x := append(repeat(0.234, 12), repeat(0, 6)...)
	y := append(repeat(0.156, 12), repeat(0, 6)...)
	assert.InDelta(t, separability(x, y), Separability(sig, background, signature.Reflectance), 1e-12)
	std1 := 0.234 * math.Sqrt(2.0/9.0)
	std2 := 0.156 * math.Sqrt(2.0/9.0)
	pooled := (std1 + std2) / 2
	want := 2 * (1 - math.Exp(-0.125*0.052*0.052/(pooled*pooled)))
	assert.InDelta(t, want, Separability(sig, background, signature.Reflectance), 1e-9)
}

func TestFindSimilar(t *testing.T) {
	t.Parallel()

	target := newSyntheticSignature(t, "target", 0.234, highGoldIndices)
	twin := target.Clone()
	scaled := newSyntheticSignature(t, "scaled", 0.156, backgroundIndices)
	partial := newFromValues(t, "partial", append(append(repeat(0.3, 6), repeat(0.1, 6)...), repeat(0, 6)...))
	inverted := newFromValues(t, "inverted", append(repeat(0, 12), repeat(0.5, 6)...))

	matches := FindSimilar(target, []*signature.Signature{inverted, partial, twin, scaled}, 0.7)
	require.Len(t, matches, 2)
	assert.Equal(t, "scaled", matches[0].ID)
	assert.Same(t, scaled, matches[0].Signature)
	assert.InDelta(t, 1.0, matches[0].Correlation, 1e-9)
	assert.Equal(t, "partial", matches[1].ID)
	assert.InDelta(t, 0.756, matches[1].Correlation, 1e-3)

	assert.Len(t, FindSimilar(target, []*signature.Signature{partial, scaled}, DefaultThreshold), 1)
	assert.Empty(t, FindSimilar(target, nil, DefaultThreshold))
}

func TestCompareMultiple(t *testing.T) {
	t.Parallel()

	sigs := []*signature.Signature{
		newSyntheticSignature(t, "a", 0.234, highGoldIndices),
		newSyntheticSignature(t, "b", 0.156, backgroundIndices),
		newFromValues(t, "c", append(append(repeat(0.3, 6), repeat(0.1, 6)...), repeat(0, 6)...)),
	}

	result := CompareMultiple(sigs)
	assert.Equal(t, []string{"a", "b", "c"}, result.SignatureIDs)
	require.Len(t, result.SimilarityMatrix, 3)
	require.Len(t, result.SeparabilityMatrix, 3)

	var offDiagonal []float64
	for i := range sigs {
		assert.Equal(t, 1.0, result.SimilarityMatrix[i][i])
		assert.Equal(t, 0.0, result.SeparabilityMatrix[i][i])
		for j := range sigs {
			assert.Equal(t, result.SimilarityMatrix[i][j], result.SimilarityMatrix[j][i])
			assert.Equal(t, result.SeparabilityMatrix[i][j], result.SeparabilityMatrix[j][i])
			if i != j {
				offDiagonal = append(offDiagonal, result.SimilarityMatrix[i][j])
			}
		}
	}
	assert.InDelta(t, mean(offDiagonal), result.MeanSimilarity, 1e-12)
	assert.Greater(t, result.MeanSeparability, 0.0)

	empty := CompareMultiple(nil)
	assert.Empty(t, empty.SignatureIDs)
	assert.Equal(t, 0.0, empty.MeanSimilarity)
	assert.Equal(t, 0.0, empty.MeanSeparability)
}

func TestAnalyzeBands(t *testing.T) {
	t.Parallel()

	sigs := []*signature.Signature{
		newSyntheticSignature(t, "a", 0.234, highGoldIndices),
		newSyntheticSignature(t, "b", 0.156, backgroundIndices),
	}

	analysis := AnalyzeBands(sigs, signature.Reflectance)
	require.Len(t, analysis.BandNumbers, signature.BandCount)
	assert.Equal(t, 1, analysis.BandNumbers[0])
	assert.Equal(t, "ASTER_B04_1.66um_Clay_Carbonate", analysis.BandNames[0])
	assert.InDelta(t, 0.156, analysis.MinValues[0], 1e-12)
	assert.InDelta(t, 0.234, analysis.MaxValues[0], 1e-12)
	assert.InDelta(t, 0.195, analysis.MeanValues[0], 1e-12)
	assert.InDelta(t, 0.039, analysis.StdValues[0], 1e-12)
	assert.Empty(t, analysis.CheckScaleIssues())

	var sb strings.Builder
	require.NoError(t, analysis.WriteReport(&sb))
	assert.Contains(t, sb.String(), "Band Analysis (Reflectance)")
	assert.Contains(t, sb.String(), "Gold_Phyllic_Sericite")

	assert.Empty(t, AnalyzeBands(nil, signature.Reflectance).BandNames)
}

func TestCheckScaleIssues(t *testing.T) {
	t.Parallel()

	bright := newSyntheticSignature(t, "bright", 1.5, nil)
	dim := newSyntheticSignature(t, "dim", 0.2, nil)
	reflectance := AnalyzeBands([]*signature.Signature{bright, dim}, signature.Reflectance)
	issues := reflectance.CheckScaleIssues()
	require.Len(t, issues, signature.FirstIndexBand-1)
	assert.Contains(t, issues[0], "outside [0, 1]")

	sigs := make([]*signature.Signature, 0, 6)
	for i := 0; i < 6; i++ {
		indices := make([]float64, 6)
		if i == 0 {
			indices[0] = 1
		}
		sigs = append(sigs, newSyntheticSignature(t, "s", 0.2, indices))
	}
	index := AnalyzeBands(sigs, signature.Index)
	issues = index.CheckScaleIssues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "Band 13")
	assert.Contains(t, issues[0], "coefficient of variation")
}
