package signature

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mdobak/go-xerrors"

	"spectral-signatures/utils"
)

var (
	// ErrNotFound is returned when a signature file does not exist.
	ErrNotFound = errors.New("signature file not found")
	// ErrUnsupportedFormat is returned for files that are neither flat nor structured records.
	ErrUnsupportedFormat = errors.New("unsupported signature format")
)

// ParseError reports a malformed flat record field.
type ParseError struct {
	Path  string
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d bad %s: %v", e.Path, e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var csvHeader = []string{
	"band_number",
	"band_name",
	"wavelength_um",
	"reflectance_value",
	"continuum_removed",
	"index_value",
	"notes",
}

func formatValue(v Value) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// WriteCSV writes the flat form: a header and one row per band sorted by
// band number. Absent values become empty cells.
func (s *Signature) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range s.sortedBands() {
		row := []string{
			strconv.Itoa(b.Number),
			b.Name,
			formatValue(b.Wavelength),
			formatValue(b.Reflectance),
			formatValue(b.ContinuumRemoved),
			formatValue(b.Index),
			b.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the structured form with nulls preserved.
func (s *Signature) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s.normalised())
}

// SaveCSV writes the flat form to path, creating parent directories.
func (s *Signature) SaveCSV(path string) error {
	return saveFile(path, s.WriteCSV)
}

// SaveJSON writes the structured form to path, creating parent directories.
func (s *Signature) SaveJSON(path string) error {
	return saveFile(path, s.WriteJSON)
}

// Save writes the signature in the given format.
func (s *Signature) Save(path string, format Format) error {
	if format == FormatCSV {
		return s.SaveCSV(path)
	}
	return s.SaveJSON(path)
}

func saveFile(path string, write func(io.Writer) error) error {
	if err := utils.CreateFolder(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(fh); err != nil {
		_ = fh.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return fh.Close()
}

// ReadCSV parses the flat form. Columns are matched by header name; an empty
// reflectance cell reads back as 0 while empty wavelength, continuum-removed
// and index cells read back as absent.
func ReadCSV(r io.Reader, id, category string) (*Signature, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return newLoaded(id, category, nil), nil
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Field: "header", Err: err}
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var bands []Band
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Line: line, Field: "row", Err: err}
		}

		cell := func(name string) (string, bool) {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return "", false
			}
			return record[idx], true
		}
		optional := func(name string) (Value, error) {
			raw, _ := cell(name)
			if raw == "" {
				return Absent(), nil
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return Absent(), &ParseError{Line: line, Field: name, Err: err}
			}
			return Some(f), nil
		}

		var b Band
		if raw, ok := cell("band_number"); ok {
			n, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return nil, &ParseError{Line: line, Field: "band_number", Err: err}
			}
			b.Number = n
		}
		b.Name, _ = cell("band_name")
		b.Notes, _ = cell("notes")

		if b.Wavelength, err = optional("wavelength_um"); err != nil {
			return nil, err
		}
		if b.Reflectance, err = optional("reflectance_value"); err != nil {
			return nil, err
		}
		if !b.Reflectance.IsSet() {
			b.Reflectance = Some(0)
		}
		if b.ContinuumRemoved, err = optional("continuum_removed"); err != nil {
			return nil, err
		}
		if b.Index, err = optional("index_value"); err != nil {
			return nil, err
		}

		bands = append(bands, b)
	}

	return newLoaded(id, category, bands), nil
}

func newLoaded(id, category string, bands []Band) *Signature {
	return &Signature{
		ID:         id,
		Category:   category,
		Location:   Attributes{},
		Source:     Attributes{},
		Bands:      bands,
		Statistics: reflectanceStatistics(bands, true),
		Metadata:   Attributes{},
	}
}

// LoadCSV reads a flat record file. The signature id is the file's base name
// and the category is the name of its containing directory.
func LoadCSV(path string) (*Signature, error) {
	fh, err := openSignatureFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	sig, err := ReadCSV(fh, fileStem(path), parentName(path))
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return sig, nil
}

// structuredRecord mirrors Signature with pointers so missing top-level
// fields can be told apart from empty ones.
type structuredRecord struct {
	ID         *string            `json:"signature_id"`
	Category   *string            `json:"category"`
	Location   Attributes         `json:"location"`
	Source     Attributes         `json:"source"`
	Bands      []Band             `json:"bands"`
	Statistics map[string]float64 `json:"statistics"`
	Metadata   Attributes         `json:"metadata"`
}

// ReadJSON parses the structured form. A missing signature_id takes
// fallbackID, a missing category becomes "unknown" and missing collections
// become empty.
func ReadJSON(r io.Reader, fallbackID string) (*Signature, error) {
	var rec structuredRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("unable to parse signature: %w", err)
	}

	sig := &Signature{
		ID:         fallbackID,
		Category:   CategoryUnknown,
		Location:   rec.Location,
		Source:     rec.Source,
		Bands:      rec.Bands,
		Statistics: rec.Statistics,
		Metadata:   rec.Metadata,
	}
	if rec.ID != nil {
		sig.ID = *rec.ID
	}
	if rec.Category != nil {
		sig.Category = *rec.Category
	}
	return sig.normalised(), nil
}

// LoadJSON reads a structured record file.
func LoadJSON(path string) (*Signature, error) {
	fh, err := openSignatureFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()

	sig, err := ReadJSON(fh, fileStem(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sig, nil
}

// Load reads a signature file in the given format.
func Load(path string, format Format) (*Signature, error) {
	if format == FormatCSV {
		return LoadCSV(path)
	}
	return LoadJSON(path)
}

// LoadAll loads every file of the given format in dir. Files that fail to
// load are logged and skipped.
func LoadAll(dir string, format Format) ([]*Signature, error) {
	paths, err := ListFiles(dir, format)
	if err != nil {
		return nil, err
	}

	logger := utils.GetLogger()
	signatures := make([]*Signature, 0, len(paths))
	for _, path := range paths {
		sig, err := Load(path, format)
		if err != nil {
			logger.Warn("could not load signature", "path", path, "error", xerrors.New(err))
			continue
		}
		signatures = append(signatures, sig)
	}
	return signatures, nil
}

// ListFiles returns the files in dir carrying the format's extension, sorted by name.
func ListFiles(dir string, format Format) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), format.Ext()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func openSignatureFile(path string) (*os.File, error) {
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	return fh, nil
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parentName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	parent := filepath.Base(filepath.Dir(abs))
	if parent == "." || parent == string(filepath.Separator) {
		return ""
	}
	return parent
}
