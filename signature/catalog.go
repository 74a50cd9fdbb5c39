package signature

// BandCount is the number of channels every complete signature carries.
const BandCount = 18

// Band groups by number: 1-6 raw SWIR reflectance, 7-12 continuum removed,
// 13-18 gold pathfinder indices.
const (
	FirstRawBand       = 1
	FirstContinuumBand = 7
	FirstIndexBand     = 13
)

// BandDefinition is a read-only catalog entry.
type BandDefinition struct {
	Number     int
	Name       string
	Wavelength Value
}

var asterBands = [BandCount]BandDefinition{
	{Number: 1, Name: "ASTER_B04_1.66um_Clay_Carbonate", Wavelength: Some(1.656)},
	{Number: 2, Name: "ASTER_B05_2.17um_AlOH_Sericite", Wavelength: Some(2.167)},
	{Number: 3, Name: "ASTER_B06_2.21um_AlOH_Muscovite", Wavelength: Some(2.209)},
	{Number: 4, Name: "ASTER_B07_2.26um_MgOH_Chlorite", Wavelength: Some(2.262)},
	{Number: 5, Name: "ASTER_B08_2.34um_Carbonate", Wavelength: Some(2.336)},
	{Number: 6, Name: "ASTER_B09_2.40um_Carbonate_Chlorite", Wavelength: Some(2.400)},

	{Number: 7, Name: "CR_ASTER_B04_1.66um_Clay_Carbonate", Wavelength: Some(1.656)},
	{Number: 8, Name: "CR_ASTER_B05_2.17um_AlOH_Sericite", Wavelength: Some(2.167)},
	{Number: 9, Name: "CR_ASTER_B06_2.21um_AlOH_Muscovite", Wavelength: Some(2.209)},
	{Number: 10, Name: "CR_ASTER_B07_2.26um_MgOH_Chlorite", Wavelength: Some(2.262)},
	{Number: 11, Name: "CR_ASTER_B08_2.34um_Carbonate", Wavelength: Some(2.336)},
	{Number: 12, Name: "CR_ASTER_B09_2.40um_Carbonate_Chlorite", Wavelength: Some(2.400)},

	{Number: 13, Name: "Gold_Phyllic_Sericite"},
	{Number: 14, Name: "Gold_Argillic_Kaolinite"},
	{Number: 15, Name: "Gold_Propylitic_Chlorite"},
	{Number: 16, Name: "Gold_Composite_Best"},
	{Number: 17, Name: "Gold_Hydrothermal_Intensity"},
	{Number: 18, Name: "Gold_Advanced_Argillic"},
}

// Catalog returns the band definitions in canonical order.
func Catalog() []BandDefinition {
	out := make([]BandDefinition, BandCount)
	copy(out, asterBands[:])
	return out
}

// LookupBand returns the definition for a 1-based band number.
func LookupBand(number int) (BandDefinition, bool) {
	if number < 1 || number > BandCount {
		return BandDefinition{}, false
	}
	return asterBands[number-1], true
}

// LookupBandName returns the definition with the given name.
func LookupBandName(name string) (BandDefinition, bool) {
	for _, def := range asterBands {
		if def.Name == name {
			return def, true
		}
	}
	return BandDefinition{}, false
}

// IsIndexBand reports whether number belongs to the derived index group.
func IsIndexBand(number int) bool {
	return number >= FirstIndexBand && number <= BandCount
}
