package signature

import "sort"

// band returns the first record with the given number.
func (s *Signature) band(number int) (*Band, bool) {
	for i := range s.Bands {
		if s.Bands[i].Number == number {
			return &s.Bands[i], true
		}
	}
	return nil, false
}

// BandByNumber returns the first band record with the given number, or nil.
func (s *Signature) BandByNumber(number int) *Band {
	b, _ := s.band(number)
	return b
}

// BandValue returns the reflectance of the first band with the given number.
// The second result is false when the band is missing or has no reflectance.
func (s *Signature) BandValue(number int) (float64, bool) {
	b, ok := s.band(number)
	if !ok {
		return 0, false
	}
	return b.Reflectance.Get()
}

// IndexValue returns the derived index of the first band with the given number.
func (s *Signature) IndexValue(number int) (float64, bool) {
	b, ok := s.band(number)
	if !ok {
		return 0, false
	}
	return b.Index.Get()
}

// BandByName returns the first band record with the given name, or nil.
func (s *Signature) BandByName(name string) *Band {
	for i := range s.Bands {
		if s.Bands[i].Name == name {
			return &s.Bands[i]
		}
	}
	return nil
}

// sortedBands returns the bands ordered by number without touching s.Bands.
func (s *Signature) sortedBands() []Band {
	sorted := make([]Band, len(s.Bands))
	copy(sorted, s.Bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})
	return sorted
}

// AllValues returns one value per band, ordered by band number. Bands lacking
// the requested field contribute 0.
func (s *Signature) AllValues(kind ValueKind) []float64 {
	sorted := s.sortedBands()
	values := make([]float64, len(sorted))
	for i, b := range sorted {
		switch kind {
		case ContinuumRemoved:
			values[i] = b.ContinuumRemoved.OrZero()
		case Index:
			values[i] = b.Index.OrZero()
		default:
			values[i] = b.Reflectance.OrZero()
		}
	}
	return values
}

// Wavelengths returns the band wavelengths ordered by band number, 0 when absent.
func (s *Signature) Wavelengths() []float64 {
	sorted := s.sortedBands()
	values := make([]float64, len(sorted))
	for i, b := range sorted {
		values[i] = b.Wavelength.OrZero()
	}
	return values
}

// BandNumbers returns the band numbers in ascending order.
func (s *Signature) BandNumbers() []int {
	sorted := s.sortedBands()
	numbers := make([]int, len(sorted))
	for i, b := range sorted {
		numbers[i] = b.Number
	}
	return numbers
}

// Clone returns a deep copy whose bands and maps can be edited independently.
func (s *Signature) Clone() *Signature {
	clone := *s
	clone.Bands = append([]Band(nil), s.Bands...)
	clone.Location = s.Location.Clone()
	clone.Source = s.Source.Clone()
	clone.Metadata = s.Metadata.Clone()
	clone.Statistics = make(map[string]float64, len(s.Statistics))
	for key, value := range s.Statistics {
		clone.Statistics[key] = value
	}
	return &clone
}

// normalised fills nil collections so the structured form always carries
// empty objects and arrays rather than nulls.
func (s *Signature) normalised() *Signature {
	out := *s
	if out.Location == nil {
		out.Location = Attributes{}
	}
	if out.Source == nil {
		out.Source = Attributes{}
	}
	if out.Metadata == nil {
		out.Metadata = Attributes{}
	}
	if out.Statistics == nil {
		out.Statistics = map[string]float64{}
	}
	if out.Bands == nil {
		out.Bands = []Band{}
	}
	return &out
}
