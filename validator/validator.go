// Package validator checks spectral signatures for structural integrity and
// scores their data quality.
package validator

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"

	"spectral-signatures/signature"
	"spectral-signatures/utils"
)

// Report is the outcome of a validation run. Errors are cumulative; Valid
// is true only when none were found.
type Report struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Quality summarises which optional parts of a signature are populated.
type Quality struct {
	HasLocation         bool    `json:"has_location"`
	HasSource           bool    `json:"has_source"`
	HasStatistics       bool    `json:"has_statistics"`
	HasMetadata         bool    `json:"has_metadata"`
	HasContinuumRemoved bool    `json:"has_continuum_removed"`
	HasIndexValues      bool    `json:"has_index_values"`
	DataCompleteness    float64 `json:"data_completeness"`
}

// Validate reports every structural problem with sig. Per-band reflectance
// outside [0, 1] is tolerated; a mean_reflectance statistic outside that
// range is not.
func Validate(sig *signature.Signature) Report {
	errs := []string{}
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if sig.ID == "" {
		add("Missing signature_id")
	}
	switch {
	case sig.Category == "":
		add("Missing category")
	case !slices.Contains(signature.Categories(), sig.Category):
		add("Invalid category: %s. Must be one of %v", sig.Category, signature.Categories())
	}

	if len(sig.Bands) != signature.BandCount {
		add("Expected %d bands, found %d", signature.BandCount, len(sig.Bands))
	}

	numbers := make([]int, 0, len(sig.Bands))
	for i, band := range sig.Bands {
		label := band.Number
		if band.Number == 0 {
			add("Band %d: Missing band_number", i+1)
			label = i + 1
		} else {
			if slices.Contains(numbers, band.Number) {
				add("Duplicate band_number: %d", band.Number)
			}
			numbers = append(numbers, band.Number)
		}

		if band.Name == "" {
			add("Band %d: Missing or empty band_name", label)
		}

		value, ok := band.Reflectance.Get()
		switch {
		case !ok:
			add("Band %d: Missing reflectance_value", label)
		case math.IsNaN(value) || math.IsInf(value, 0):
			add("Band %d: reflectance_value must be numeric", label)
		}
	}

	if len(numbers) == signature.BandCount {
		sorted := slices.Clone(numbers)
		slices.Sort(sorted)
		for i, n := range sorted {
			if n != i+1 {
				add("Band numbers should be 1-%d, found: %v", signature.BandCount, sorted)
				break
			}
		}
	}

	if mean, ok := sig.Statistics[signature.StatMeanReflectance]; ok {
		if mean < 0 || mean > 1 {
			add("mean_reflectance out of valid range [0, 1]: %v", mean)
		}
	}

	return Report{Valid: len(errs) == 0, Errors: errs}
}

// CheckQuality scores a signature. It never fails.
func CheckQuality(sig *signature.Signature) Quality {
	quality := Quality{
		HasLocation:   len(sig.Location) > 0,
		HasSource:     len(sig.Source) > 0,
		HasStatistics: len(sig.Statistics) > 0,
		HasMetadata:   len(sig.Metadata) > 0,
	}

	filled := 0
	for _, band := range sig.Bands {
		if band.ContinuumRemoved.IsSet() {
			quality.HasContinuumRemoved = true
		}
		if band.Index.IsSet() {
			quality.HasIndexValues = true
		}
		for _, set := range []bool{
			band.Reflectance.IsSet(),
			band.ContinuumRemoved.IsSet(),
			band.Index.IsSet(),
			band.Notes != "",
		} {
			if set {
				filled++
			}
		}
	}

	if total := len(sig.Bands) * 4; total > 0 {
		quality.DataCompleteness = float64(filled) / float64(total)
	}
	return quality
}

// Check loads and validates one file. Load failures become a single
// validation error and a nil signature.
func Check(path string, format signature.Format) (*signature.Signature, Report) {
	sig, err := signature.Load(path, format)
	if err != nil {
		return nil, Report{Valid: false, Errors: []string{fmt.Sprintf("Error loading file: %v", err)}}
	}
	return sig, Validate(sig)
}

// ValidateFile loads and validates one file.
func ValidateFile(path string, format signature.Format) Report {
	_, report := Check(path, format)
	return report
}

// ValidateDirectory validates every file of the given format in dir, keyed
// by file name.
func ValidateDirectory(dir string, format signature.Format) (map[string]Report, error) {
	paths, err := signature.ListFiles(dir, format)
	if err != nil {
		return nil, err
	}

	results := make(map[string]Report, len(paths))
	invalid := 0
	for _, path := range paths {
		report := ValidateFile(path, format)
		if !report.Valid {
			invalid++
		}
		results[filepath.Base(path)] = report
	}

	utils.GetLogger().Info("validated signature directory",
		"dir", dir, "files", len(paths), "invalid", invalid)
	return results, nil
}
