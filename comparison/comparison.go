// Package comparison computes distance, correlation and separability
// metrics between spectral signatures.
package comparison

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"github.com/montanaflynn/stats"

	"spectral-signatures/signature"
)

const (
	// DefaultThreshold is the minimum correlation FindSimilar keeps.
	DefaultThreshold = 0.8

	maxKeyDifferences = 10
	minKeyDifference  = 0.01
	minDenominator    = 0.001
	maxSeparability   = 2.0
	zeroSpread        = 1e-12
)

// BandDifference records how one band differs between two signatures.
type BandDifference struct {
	BandNumber        int     `json:"band_number"`
	BandName          string  `json:"band_name"`
	Value1            float64 `json:"value1"`
	Value2            float64 `json:"value2"`
	Difference        float64 `json:"difference"`
	PercentDifference float64 `json:"percent_difference"`
}

// Result bundles the pairwise metrics of Compare.
type Result struct {
	EuclideanDistance float64          `json:"euclidean_distance"`
	Correlation       float64          `json:"correlation"`
	Separability      float64          `json:"separability"`
	KeyDifferences    []BandDifference `json:"key_differences"`
}

// Match is a candidate returned by FindSimilar.
type Match struct {
	Signature   *signature.Signature `json:"-"`
	ID          string               `json:"signature_id"`
	Correlation float64              `json:"correlation"`
}

// BatchResult holds the pairwise matrices of CompareMultiple.
type BatchResult struct {
	SimilarityMatrix   [][]float64 `json:"similarity_matrix"`
	SeparabilityMatrix [][]float64 `json:"separability_matrix"`
	SignatureIDs       []string    `json:"signature_ids"`
	MeanSimilarity     float64     `json:"mean_similarity"`
	MeanSeparability   float64     `json:"mean_separability"`
}

// EuclideanDistance is the L2 norm of the elementwise difference of the two
// value sequences. Missing values are already zero-filled by AllValues.
func EuclideanDistance(a, b *signature.Signature, kind signature.ValueKind) float64 {
	x, y := paired(a.AllValues(kind), b.AllValues(kind))
	if len(x) == 0 {
		return 0
	}

	diff := make([]float64, len(x))
	for i := range x {
		diff[i] = x[i] - y[i]
	}
	squared := make([]float64, len(diff))
	vecmath.MulBlock(squared, diff, diff)

	var sum float64
	for _, v := range squared {
		sum += v
	}
	return math.Sqrt(sum)
}

// Correlation is the Pearson coefficient over positions where both values
// are defined. Fewer than two usable pairs or an undefined coefficient give 0.
func Correlation(a, b *signature.Signature, kind signature.ValueKind) float64 {
	x, y := dropUndefined(paired(a.AllValues(kind), b.AllValues(kind)))
	return pearson(x, y)
}

// Separability is a Jeffries-Matusita style heuristic over the mean and
// population standard deviation of each whole sequence, in [0, 2].
func Separability(a, b *signature.Signature, kind signature.ValueKind) float64 {
	x, y := dropUndefined(paired(a.AllValues(kind), b.AllValues(kind)))
	return separability(x, y)
}

// Compare computes every pairwise metric over reflectance plus the list of
// key band differences. With focusBands each requested band present in both
// signatures is reported; without, the ten largest differences above 0.01.
func Compare(sig1, sig2 *signature.Signature, focusBands []int) Result {
	result := Result{
		EuclideanDistance: EuclideanDistance(sig1, sig2, signature.Reflectance),
		Correlation:       Correlation(sig1, sig2, signature.Reflectance),
		Separability:      Separability(sig1, sig2, signature.Reflectance),
		KeyDifferences:    []BandDifference{},
	}

	if len(focusBands) > 0 {
		for _, n := range focusBands {
			if diff, ok := bandDifference(sig1, sig2, n); ok {
				result.KeyDifferences = append(result.KeyDifferences, diff)
			}
		}
		return result
	}

	for n := 1; n <= signature.BandCount; n++ {
		diff, ok := bandDifference(sig1, sig2, n)
		if !ok || diff.Difference <= minKeyDifference {
			continue
		}
		result.KeyDifferences = append(result.KeyDifferences, diff)
	}
	sort.SliceStable(result.KeyDifferences, func(i, j int) bool {
		return result.KeyDifferences[i].Difference > result.KeyDifferences[j].Difference
	})
	if len(result.KeyDifferences) > maxKeyDifferences {
		result.KeyDifferences = result.KeyDifferences[:maxKeyDifferences]
	}
	return result
}

// FindSimilar returns the candidates whose reflectance correlation with
// target is at least threshold, best first. Candidates sharing the target's
// id are skipped.
func FindSimilar(target *signature.Signature, candidates []*signature.Signature, threshold float64) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == nil || candidate.ID == target.ID {
			continue
		}
		corr := Correlation(target, candidate, signature.Reflectance)
		if corr < threshold {
			continue
		}
		matches = append(matches, Match{Signature: candidate, ID: candidate.ID, Correlation: corr})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Correlation > matches[j].Correlation
	})
	return matches
}

// CompareMultiple builds symmetric correlation and separability matrices
// over reflectance. The correlation diagonal is 1 and the separability
// diagonal stays 0. Means exclude the diagonal and zero separabilities.
func CompareMultiple(sigs []*signature.Signature) BatchResult {
	n := len(sigs)
	result := BatchResult{
		SimilarityMatrix:   newMatrix(n),
		SeparabilityMatrix: newMatrix(n),
		SignatureIDs:       make([]string, n),
	}

	var similarities, separabilities []float64
	for i := 0; i < n; i++ {
		result.SignatureIDs[i] = sigs[i].ID
		result.SimilarityMatrix[i][i] = 1
		for j := i + 1; j < n; j++ {
			corr := Correlation(sigs[i], sigs[j], signature.Reflectance)
			sep := Separability(sigs[i], sigs[j], signature.Reflectance)

			result.SimilarityMatrix[i][j] = corr
			result.SimilarityMatrix[j][i] = corr
			result.SeparabilityMatrix[i][j] = sep
			result.SeparabilityMatrix[j][i] = sep

			similarities = append(similarities, corr, corr)
			if sep != 0 {
				separabilities = append(separabilities, sep, sep)
			}
		}
	}

	result.MeanSimilarity = mean(similarities)
	result.MeanSeparability = mean(separabilities)
	return result
}

// String renders a short human summary of the metrics.
func (r Result) String() string {
	return fmt.Sprintf("distance=%.4f correlation=%.4f separability=%.4f differences=%d",
		r.EuclideanDistance, r.Correlation, r.Separability, len(r.KeyDifferences))
}

// keyValue prefers reflectance and falls back to the index value when the
// reflectance is absent or zero, since index bands carry a zero reflectance.
func keyValue(sig *signature.Signature, n int) (float64, bool) {
	if v, ok := sig.BandValue(n); ok && v != 0 {
		return v, true
	}
	return sig.IndexValue(n)
}

func bandDifference(sig1, sig2 *signature.Signature, n int) (BandDifference, bool) {
	v1, ok1 := keyValue(sig1, n)
	v2, ok2 := keyValue(sig2, n)
	if !ok1 || !ok2 {
		return BandDifference{}, false
	}

	diff := math.Abs(v1 - v2)
	denominator := math.Max(math.Max(math.Abs(v1), math.Abs(v2)), minDenominator)
	return BandDifference{
		BandNumber:        n,
		BandName:          bandName(sig1, n),
		Value1:            v1,
		Value2:            v2,
		Difference:        diff,
		PercentDifference: diff / denominator * 100,
	}, true
}

func bandName(sig *signature.Signature, n int) string {
	if b := sig.BandByNumber(n); b != nil && b.Name != "" {
		return b.Name
	}
	if def, ok := signature.LookupBand(n); ok {
		return def.Name
	}
	return fmt.Sprintf("Band_%d", n)
}

// paired pads the shorter sequence with zeros.
func paired(a, b []float64) ([]float64, []float64) {
	if len(a) == len(b) {
		return a, b
	}
	n := max(len(a), len(b))
	x := make([]float64, n)
	y := make([]float64, n)
	copy(x, a)
	copy(y, b)
	return x, y
}

func dropUndefined(a, b []float64) ([]float64, []float64) {
	x := make([]float64, 0, len(a))
	y := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	return x, y
}

// constant reports whether values have no spread beyond rounding.
func constant(values []float64) bool {
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	if lo == hi {
		return true
	}
	m, _ := stats.Mean(values)
	std, _ := stats.StandardDeviationPopulation(values)
	return std <= zeroSpread*math.Max(1, math.Abs(m))
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 || constant(x) || constant(y) {
		return 0
	}
	corr, err := stats.Correlation(x, y)
	if err != nil || math.IsNaN(corr) || math.IsInf(corr, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, corr))
}

func separability(x, y []float64) float64 {
	if len(x) == 0 || constant(x) || constant(y) {
		return 0
	}
	mean1, _ := stats.Mean(x)
	mean2, _ := stats.Mean(y)
	std1, _ := stats.StandardDeviationPopulation(x)
	std2, _ := stats.StandardDeviationPopulation(y)
	pooled := (std1 + std2) / 2
	delta := mean1 - mean2
	sep := 2 * (1 - math.Exp(-0.125*delta*delta/(pooled*pooled)))
	if math.IsNaN(sep) {
		return 0
	}
	return math.Min(sep, maxSeparability)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m, _ := stats.Mean(values)
	return m
}

func newMatrix(n int) [][]float64 {
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	return matrix
}
