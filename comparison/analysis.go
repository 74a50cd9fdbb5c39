package comparison

import (
	"fmt"
	"io"
	"math"

	"github.com/montanaflynn/stats"

	"spectral-signatures/signature"
)

// maxCoefficientOfVariation flags bands whose spread dwarfs their mean.
const maxCoefficientOfVariation = 2.0

// BandAnalysis summarises each band position across a collection of signatures.
type BandAnalysis struct {
	Kind        signature.ValueKind `json:"kind"`
	BandNumbers []int               `json:"band_numbers"`
	BandNames   []string            `json:"band_names"`
	MinValues   []float64           `json:"min_values"`
	MaxValues   []float64           `json:"max_values"`
	MeanValues  []float64           `json:"mean_values"`
	StdValues   []float64           `json:"std_values"`
}

// AnalyzeBands collects per-band min, max, mean and population standard
// deviation over the value sequences of every signature. Sequences shorter
// than the longest one contribute only the positions they have.
func AnalyzeBands(sigs []*signature.Signature, kind signature.ValueKind) BandAnalysis {
	analysis := BandAnalysis{Kind: kind}
	if len(sigs) == 0 {
		return analysis
	}

	var reference *signature.Signature
	columns := [][]float64{}
	for _, sig := range sigs {
		if sig == nil {
			continue
		}
		values := sig.AllValues(kind)
		if len(values) > len(columns) {
			reference = sig
		}
		for i, v := range values {
			if i >= len(columns) {
				columns = append(columns, make([]float64, 0, len(sigs)))
			}
			columns[i] = append(columns[i], v)
		}
	}
	if len(columns) == 0 {
		return analysis
	}

	numbers := reference.BandNumbers()
	count := len(columns)
	analysis.BandNumbers = make([]int, count)
	analysis.BandNames = make([]string, count)
	analysis.MinValues = make([]float64, count)
	analysis.MaxValues = make([]float64, count)
	analysis.MeanValues = make([]float64, count)
	analysis.StdValues = make([]float64, count)

	for i, column := range columns {
		number := i + 1
		if i < len(numbers) {
			number = numbers[i]
		}
		analysis.BandNumbers[i] = number
		analysis.BandNames[i] = bandName(reference, number)

		analysis.MinValues[i], _ = stats.Min(column)
		analysis.MaxValues[i], _ = stats.Max(column)
		analysis.MeanValues[i], _ = stats.Mean(column)
		analysis.StdValues[i], _ = stats.StandardDeviationPopulation(column)
	}

	return analysis
}

// WriteReport prints the per-band table.
func (a *BandAnalysis) WriteReport(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "\n=== Band Analysis (%s) ===\n", a.Kind.Title()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-5s %-28s %12s %12s %12s %12s %12s\n",
		"Band", "Name", "Min", "Max", "Mean", "Std", "Range"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "----------------------------------------------------------------------------------------------"); err != nil {
		return err
	}

	for i, name := range a.BandNames {
		rangeVal := a.MaxValues[i] - a.MinValues[i]
		if _, err := fmt.Fprintf(w, "%-5d %-28s %12.6f %12.6f %12.6f %12.6f %12.6f\n",
			a.BandNumbers[i], name, a.MinValues[i], a.MaxValues[i], a.MeanValues[i], a.StdValues[i], rangeVal); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// CheckScaleIssues lists bands with a high coefficient of variation and, for
// reflectance, bands whose values leave [0, 1].
func (a *BandAnalysis) CheckScaleIssues() []string {
	issues := []string{}

	for i, name := range a.BandNames {
		if math.Abs(a.MeanValues[i]) > 1e-9 {
			coeffVar := a.StdValues[i] / math.Abs(a.MeanValues[i])
			if coeffVar > maxCoefficientOfVariation {
				issues = append(issues, fmt.Sprintf(
					"Band %d '%s' has high coefficient of variation (%.2f), indicating high variability",
					a.BandNumbers[i], name, coeffVar))
			}
		}

		if a.Kind != signature.Reflectance {
			continue
		}
		if a.MinValues[i] < 0 || a.MaxValues[i] > 1 {
			issues = append(issues, fmt.Sprintf(
				"Band %d '%s' reflectance spans [%.4f, %.4f], outside [0, 1]",
				a.BandNumbers[i], name, a.MinValues[i], a.MaxValues[i]))
		}
	}

	return issues
}
