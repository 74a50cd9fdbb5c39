package signature

import "strings"

// Band is one channel record of a signature.
type Band struct {
	Number           int    `json:"band_number"` // 0 when missing
	Name             string `json:"band_name"`
	Wavelength       Value  `json:"wavelength_um"`
	Reflectance      Value  `json:"reflectance_value"`
	ContinuumRemoved Value  `json:"continuum_removed"`
	Index            Value  `json:"index_value"`
	Notes            string `json:"notes"`
}

// Signature is the per-site record of band values plus provenance.
type Signature struct {
	ID         string             `json:"signature_id"`
	Category   string             `json:"category"`
	Location   Attributes         `json:"location"`
	Source     Attributes         `json:"source"`
	Bands      []Band             `json:"bands"`
	Statistics map[string]float64 `json:"statistics"`
	Metadata   Attributes         `json:"metadata"`
}

// Statistics keys.
const (
	StatMeanReflectance = "mean_reflectance"
	StatStdReflectance  = "std_reflectance"
	StatMinReflectance  = "min_reflectance"
	StatMaxReflectance  = "max_reflectance"
)

// Metadata keys stamped at construction.
const (
	MetaCreatedDate = "created_date"
	MetaCreatedBy   = "created_by"
)

// Categories.
const (
	CategoryGoldExploration = "gold_exploration"
	CategoryMinerals        = "minerals"
	CategoryVegetation      = "vegetation"
	CategoryBackground      = "background"
	CategoryOther           = "other"

	// CategoryUnknown is assigned when a structured record omits its category.
	CategoryUnknown = "unknown"
)

// Categories returns the enumerated set of valid categories.
func Categories() []string {
	return []string{
		CategoryGoldExploration,
		CategoryMinerals,
		CategoryVegetation,
		CategoryBackground,
		CategoryOther,
	}
}

// ValueKind selects which per-band field a value sequence is built from.
type ValueKind string

const (
	Reflectance      ValueKind = "reflectance"
	ContinuumRemoved ValueKind = "continuum_removed"
	Index            ValueKind = "index"
)

// ParseValueKind maps a name to a ValueKind; unrecognised names select reflectance.
func ParseValueKind(name string) ValueKind {
	switch ValueKind(strings.ToLower(strings.TrimSpace(name))) {
	case ContinuumRemoved:
		return ContinuumRemoved
	case Index:
		return Index
	default:
		return Reflectance
	}
}

// Title is the human label used on charts and reports.
func (k ValueKind) Title() string {
	switch k {
	case ContinuumRemoved:
		return "Continuum Removed"
	case Index:
		return "Index Value"
	default:
		return "Reflectance"
	}
}

// Format is a record file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps "csv" to FormatCSV and anything else to FormatJSON.
func ParseFormat(name string) Format {
	if strings.EqualFold(strings.TrimSpace(name), string(FormatCSV)) {
		return FormatCSV
	}
	return FormatJSON
}

// Ext is the file extension, including the dot.
func (f Format) Ext() string {
	if f == FormatCSV {
		return ".csv"
	}
	return ".json"
}
