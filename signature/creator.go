package signature

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"spectral-signatures/models"
)

// ErrBandCount is returned when a value array does not hold exactly BandCount entries.
var ErrBandCount = errors.New("unexpected band count")

// DefaultCreator is stamped into created_by when the caller supplies none.
const DefaultCreator = "unknown"

const createdDateLayout = "2006-01-02"

var now = time.Now

// CreateOptions carries the optional inputs of CreateFromArray.
type CreateOptions struct {
	Location         Attributes
	Source           Attributes
	ContinuumRemoved []float64
	IndexValues      []float64
	Metadata         Attributes
}

// CreateFromArray builds a signature by pairing values[i] with catalog entry i.
// Continuum-removed and index values are attached only where the optional
// arrays are long enough; elsewhere they stay absent.
func CreateFromArray(values []float64, id, category string, opts CreateOptions) (*Signature, error) {
	if len(values) != BandCount {
		return nil, fmt.Errorf("expected %d bands, got %d: %w", BandCount, len(values), ErrBandCount)
	}

	bands := make([]Band, BandCount)
	for i, def := range asterBands {
		b := Band{
			Number:      def.Number,
			Name:        def.Name,
			Wavelength:  def.Wavelength,
			Reflectance: Some(values[i]),
		}
		if i < len(opts.ContinuumRemoved) {
			b.ContinuumRemoved = Some(opts.ContinuumRemoved[i])
		}
		if i < len(opts.IndexValues) {
			b.Index = Some(opts.IndexValues[i])
		}
		bands[i] = b
	}

	metadata := opts.Metadata.Clone()
	metadata[MetaCreatedDate] = Text(now().Format(createdDateLayout))
	if creator, ok := metadata[MetaCreatedBy]; !ok || creator.IsNull() {
		metadata[MetaCreatedBy] = Text(DefaultCreator)
	}

	return &Signature{
		ID:         id,
		Category:   category,
		Location:   opts.Location.Clone(),
		Source:     opts.Source.Clone(),
		Bands:      bands,
		Statistics: reflectanceStatistics(bands, false),
		Metadata:   metadata,
	}, nil
}

// CreateFromCSVExport loads a flat record exported from a classification
// plugin and relabels it. Location and source replace the loaded ones only
// when non-empty.
func CreateFromCSVExport(path, id, category string, location, source Attributes) (*Signature, error) {
	if !strings.EqualFold(filepath.Ext(path), FormatCSV.Ext()) {
		return nil, fmt.Errorf("export %s: %w", filepath.Ext(path), ErrUnsupportedFormat)
	}

	sig, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}

	sig.ID = id
	sig.Category = category
	if len(location) > 0 {
		sig.Location = location.Clone()
	}
	if len(source) > 0 {
		sig.Source = source.Clone()
	}
	return sig, nil
}

// CreateFromPixel wraps CreateFromArray for values picked from a raster pixel.
func CreateFromPixel(sample models.PixelSample, id, category string, source Attributes) (*Signature, error) {
	location := Attributes{
		"pixel_x":   OptionalNumber(sample.Coords.X),
		"pixel_y":   OptionalNumber(sample.Coords.Y),
		"latitude":  OptionalNumber(sample.Coords.Latitude),
		"longitude": OptionalNumber(sample.Coords.Longitude),
	}

	return CreateFromArray(sample.Values, id, category, CreateOptions{
		Location: location,
		Source:   source,
	})
}

// CreateTemplate builds an all-zero signature and writes it to
// <outputDir>/<id>.csv and <outputDir>/<id>.json for manual editing.
func CreateTemplate(id, category, outputDir string, location, source Attributes) (*Signature, error) {
	sig, err := CreateFromArray(make([]float64, BandCount), id, category, CreateOptions{
		Location: location,
		Source:   source,
	})
	if err != nil {
		return nil, err
	}

	if err := sig.SaveCSV(filepath.Join(outputDir, id+FormatCSV.Ext())); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	if err := sig.SaveJSON(filepath.Join(outputDir, id+FormatJSON.Ext())); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	return sig, nil
}

// NewSignatureID derives a unique, filesystem-safe id from a free-text label.
func NewSignatureID(label string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 32
		case r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, label)

	if safe == "" {
		safe = "signature"
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("sig_%s_%s", safe, suffix[:8])
}

// reflectanceStatistics summarises the present reflectance values. With
// skipZero set, zero reflectances are left out as well (flat records cannot
// tell an empty cell from a measured zero). No values gives an empty map.
func reflectanceStatistics(bands []Band, skipZero bool) map[string]float64 {
	values := make([]float64, 0, len(bands))
	for _, b := range bands {
		v, ok := b.Reflectance.Get()
		if !ok || (skipZero && v == 0) {
			continue
		}
		values = append(values, v)
	}

	summary := map[string]float64{}
	if len(values) == 0 {
		return summary
	}

	mean, _ := stats.Mean(values)
	std, _ := stats.StandardDeviationPopulation(values)
	lo, _ := stats.Min(values)
	hi, _ := stats.Max(values)
	if lo == hi {
		mean, std = lo, 0
	}

	summary[StatMeanReflectance] = mean
	summary[StatStdReflectance] = std
	summary[StatMinReflectance] = lo
	summary[StatMaxReflectance] = hi
	return summary
}
