package validator

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectral-signatures/signature"
	"spectral-signatures/utils"
)

func newValidSignature(t *testing.T) *signature.Signature {
	t.Helper()

	values := make([]float64, signature.BandCount)
	indices := make([]float64, signature.BandCount)
	for i := range values {
		if i < signature.FirstIndexBand-1 {
			values[i] = 0.234
		} else {
			indices[i] = 100 + float64(i)
		}
	}

	sig, err := signature.CreateFromArray(values, "high_gold_example", signature.CategoryGoldExploration,
		signature.CreateOptions{IndexValues: indices})
	require.NoError(t, err)
	return sig
}

func TestValidateAcceptsConstructedSignature(t *testing.T) {
	t.Parallel()

	report := Validate(newValidSignature(t))
	assert.True(t, report.Valid)
	assert.Empty(t, report.Errors)
	assert.NotNil(t, report.Errors)
}

func TestValidateAccumulatesErrors(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.Bands = sig.Bands[:17]
	sig.Bands[0].Name = ""

	report := Validate(sig)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{
		"Expected 18 bands, found 17",
		"Band 1: Missing or empty band_name",
	}, report.Errors)
}

func TestValidateMeanReflectanceOutOfRange(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.Statistics[signature.StatMeanReflectance] = 1.5

	report := Validate(sig)
	assert.False(t, report.Valid)
	assert.Equal(t, []string{"mean_reflectance out of valid range [0, 1]: 1.5"}, report.Errors)
}

func TestValidateToleratesBandReflectanceOutOfRange(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.Bands[6].Reflectance = signature.Some(3.0)
	sig.Bands[7].Reflectance = signature.Some(-0.2)

	assert.True(t, Validate(sig).Valid)
}

func TestValidateIdentity(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.ID = ""
	sig.Category = ""
	assert.Equal(t, []string{"Missing signature_id", "Missing category"}, Validate(sig).Errors)

	sig.ID = "x"
	sig.Category = "gold"
	assert.Equal(t, []string{
		"Invalid category: gold. Must be one of [gold_exploration minerals vegetation background other]",
	}, Validate(sig).Errors)
}

func TestValidateBandProblems(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.Bands[1].Number = 1

	report := Validate(sig)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "Duplicate band_number: 1", report.Errors[0])
	assert.Equal(t, "Band numbers should be 1-18, found: [1 1 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18]", report.Errors[1])

	sig = newValidSignature(t)
	sig.Bands[2].Number = 0
	sig.Bands[4].Reflectance = signature.Absent()
	sig.Bands[5].Reflectance = signature.Some(math.NaN())
	sig.Bands[8].Reflectance = signature.Some(math.Inf(1))

	assert.Equal(t, []string{
		"Band 3: Missing band_number",
		"Band 5: Missing reflectance_value",
		"Band 6: reflectance_value must be numeric",
		"Band 9: reflectance_value must be numeric",
	}, Validate(sig).Errors)
}

func TestCheckQuality(t *testing.T) {
	t.Parallel()

	sig := newValidSignature(t)
	sig.Bands[0].Notes = "field checked"

	quality := CheckQuality(sig)
	assert.False(t, quality.HasLocation)
	assert.False(t, quality.HasSource)
	assert.True(t, quality.HasStatistics)
	assert.True(t, quality.HasMetadata)
	assert.False(t, quality.HasContinuumRemoved)
	assert.True(t, quality.HasIndexValues)
	assert.InDelta(t, 37.0/72.0, quality.DataCompleteness, 1e-12)

	sig.Location = signature.Attributes{"latitude": signature.Number(-31.9)}
	sig.Bands[3].ContinuumRemoved = signature.Some(0.97)
	quality = CheckQuality(sig)
	assert.True(t, quality.HasLocation)
	assert.True(t, quality.HasContinuumRemoved)
	assert.InDelta(t, 38.0/72.0, quality.DataCompleteness, 1e-12)

	assert.Equal(t, Quality{}, CheckQuality(&signature.Signature{}))
}

func TestValidateFile(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), signature.CategoryGoldExploration)
	sig := newValidSignature(t)
	require.NoError(t, sig.SaveCSV(filepath.Join(dir, "site.csv")))
	require.NoError(t, sig.SaveJSON(filepath.Join(dir, "site.json")))

	assert.True(t, ValidateFile(filepath.Join(dir, "site.csv"), signature.FormatCSV).Valid)
	assert.True(t, ValidateFile(filepath.Join(dir, "site.json"), signature.FormatJSON).Valid)

	missing := ValidateFile(filepath.Join(dir, "missing.csv"), signature.FormatCSV)
	assert.False(t, missing.Valid)
	require.Len(t, missing.Errors, 1)
	assert.Contains(t, missing.Errors[0], "Error loading file: ")
	assert.Contains(t, missing.Errors[0], "not found")
}

func TestCheckReturnsLoadedSignature(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), signature.CategoryGoldExploration)
	require.NoError(t, newValidSignature(t).SaveJSON(filepath.Join(dir, "site.json")))

	sig, report := Check(filepath.Join(dir, "site.json"), signature.FormatJSON)
	require.NotNil(t, sig)
	assert.True(t, report.Valid)
	assert.Equal(t, "high_gold_example", sig.ID)

	sig, report = Check(filepath.Join(dir, "missing.json"), signature.FormatJSON)
	assert.Nil(t, sig)
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Error loading file: ")
}

func TestValidateDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), signature.CategoryBackground)
	require.NoError(t, newValidSignature(t).SaveCSV(filepath.Join(dir, "good.csv")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"),
		[]byte("band_number,band_name,reflectance_value\n1,a,bright\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0644))

	results, err := ValidateDirectory(dir, signature.FormatCSV)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results["good.csv"].Valid)
	assert.False(t, results["broken.csv"].Valid)
	assert.Contains(t, results["broken.csv"].Errors[0], "bad reflectance_value")

	_, err = ValidateDirectory(filepath.Join(dir, "nope"), signature.FormatCSV)
	assert.Error(t, err)

	// The directory summary is logged at a level the process logger emits.
	assert.True(t, utils.GetLogger().Enabled(context.Background(), slog.LevelInfo))
}
