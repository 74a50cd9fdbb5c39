package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/mdobak/go-xerrors"

	"spectral-signatures/comparison"
	"spectral-signatures/models"
	"spectral-signatures/plot"
	"spectral-signatures/reports"
	"spectral-signatures/signature"
	"spectral-signatures/utils"
	"spectral-signatures/validator"
)

type config struct {
	Dir        string
	Format     signature.Format
	Threshold  float64
	ReportPath string
	PlotDir    string
	CreatedBy  string
}

func loadConfig() config {
	return config{
		Dir:        utils.GetEnv("SIGNATURE_DIR", "signatures"),
		Format:     signature.ParseFormat(utils.GetEnv("SIGNATURE_FORMAT", "csv")),
		Threshold:  utils.GetEnvFloat("SIGNATURE_SIMILARITY_THRESHOLD", comparison.DefaultThreshold),
		ReportPath: utils.GetEnv("SIGNATURE_REPORT_PATH", reports.DefaultPath),
		PlotDir:    utils.GetEnv("SIGNATURE_PLOT_DIR", "plots"),
		CreatedBy:  utils.GetEnv("SIGNATURE_CREATED_BY", signature.DefaultCreator),
	}
}

var (
	exampleReflectance = []float64{
		0.234, 0.312, 0.289, 0.267, 0.245, 0.223,
		0.189, 0.245, 0.201, 0.178, 0.156, 0.134,
		0, 0, 0, 0, 0, 0,
	}
	exampleIndices = []float64{
		0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0,
		220, 180, 150, 250, 170, 140,
	}
	pathfinderBands = []int{13, 14, 15, 16, 17, 18}
)

const backgroundIndexScale = 0.2

// runExample builds a high-gold example, derives a background variant from
// it and walks it through compare, validate and plot.
func runExample(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("example", flag.ContinueOnError)
	outDir := fs.String("out", "examples", "Directory for the example files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := utils.GetLogger()

	highGold, err := signature.CreateFromArray(exampleReflectance, "example_high_gold_001", signature.CategoryGoldExploration,
		signature.CreateOptions{
			Location: signature.Attributes{
				"latitude":  signature.Number(48.75),
				"longitude": signature.Number(82.15),
				"utm_zone":  signature.Text("44N"),
			},
			Source: signature.Attributes{
				"sensor":            signature.Text("ASTER"),
				"scene_id":          signature.Text("AST_07_00405302002053830"),
				"acquisition_date":  signature.Text("2002-05-02"),
				"extraction_method": signature.Text("SCP_ROI"),
			},
			IndexValues: exampleIndices,
			Metadata: signature.Attributes{
				"notes":                  signature.Text("Example high gold potential signature"),
				signature.MetaCreatedBy: signature.Text(cfg.CreatedBy),
			},
		})
	if err != nil {
		return err
	}

	background := highGold.Clone()
	background.ID = "example_background_001"
	background.Category = signature.CategoryBackground
	for i := range background.Bands {
		b := &background.Bands[i]
		if signature.IsIndexBand(b.Number) {
			b.Index = signature.Some(b.Index.OrZero() * backgroundIndexScale)
		}
	}

	for _, sig := range []*signature.Signature{highGold, background} {
		base := filepath.Join(*outDir, sig.Category, sig.ID)
		if err := sig.SaveCSV(base + signature.FormatCSV.Ext()); err != nil {
			return err
		}
		if err := sig.SaveJSON(base + signature.FormatJSON.Ext()); err != nil {
			return err
		}
	}
	logger.InfoContext(ctx, "saved example signatures", slog.String("dir", *outDir))

	fmt.Fprintf(out, "Created signature: %s (%s)\n", highGold.ID, highGold.Category)
	for _, n := range []int{13, 16} {
		v, _ := highGold.IndexValue(n)
		def, _ := signature.LookupBand(n)
		fmt.Fprintf(out, "  Band %d (%s): %g\n", n, def.Name, v)
	}

	result := comparison.Compare(highGold, background, pathfinderBands)
	printComparison(out, result)

	report := validator.Validate(highGold)
	printValidation(out, highGold.ID, report)
	printQuality(out, validator.CheckQuality(highGold))

	plotDir := filepath.Join(*outDir, "plots")
	if err := plot.SavePNG(plot.RenderSignature(highGold, signature.Reflectance, plot.Options{ShowIndices: true}),
		filepath.Join(plotDir, "example_signature_reflectance.png")); err != nil {
		return err
	}
	if err := plot.SavePNG(plot.RenderGoldPathfinders([]*signature.Signature{highGold, background}, []string{"High Gold", "Background"}),
		filepath.Join(plotDir, "example_gold_pathfinders.png")); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nPlots saved to: %s\n", plotDir)

	return nil
}

func runCreate(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	id := fs.String("id", "", "Signature id (generated when empty)")
	category := fs.String("category", signature.CategoryOther, "Signature category")
	values := fs.String("values", "", "18 comma-separated reflectance values")
	cr := fs.String("cr", "", "Comma-separated continuum-removed values")
	indices := fs.String("indices", "", "Comma-separated index values")
	lat := fs.String("lat", "", "Latitude")
	lon := fs.String("lon", "", "Longitude")
	sensor := fs.String("sensor", "", "Source sensor")
	outDir := fs.String("out", cfg.Dir, "Root directory; files go to <out>/<category>/")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reflectance, err := parseFloats(*values)
	if err != nil {
		return fmt.Errorf("invalid -values: %w", err)
	}
	crValues, err := parseFloats(*cr)
	if err != nil {
		return fmt.Errorf("invalid -cr: %w", err)
	}
	indexValues, err := parseFloats(*indices)
	if err != nil {
		return fmt.Errorf("invalid -indices: %w", err)
	}

	location := signature.Attributes{}
	for key, raw := range map[string]string{"latitude": *lat, "longitude": *lon} {
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		location[key] = signature.Number(f)
	}
	source := signature.Attributes{}
	if *sensor != "" {
		source["sensor"] = signature.Text(*sensor)
	}

	sigID := *id
	if sigID == "" {
		sigID = signature.NewSignatureID(*category)
	}

	sig, err := signature.CreateFromArray(reflectance, sigID, *category, signature.CreateOptions{
		Location:         location,
		Source:           source,
		ContinuumRemoved: crValues,
		IndexValues:      indexValues,
		Metadata:         signature.Attributes{signature.MetaCreatedBy: signature.Text(cfg.CreatedBy)},
	})
	if err != nil {
		return err
	}

	base := filepath.Join(*outDir, *category, sigID)
	if err := sig.SaveCSV(base + signature.FormatCSV.Ext()); err != nil {
		return err
	}
	if err := sig.SaveJSON(base + signature.FormatJSON.Ext()); err != nil {
		return err
	}

	utils.GetLogger().InfoContext(ctx, "created signature", slog.String("id", sigID), slog.String("path", base))
	fmt.Fprintf(out, "Created %s\n", base)
	return nil
}

func runTemplate(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	id := fs.String("id", "", "Signature id (generated when empty)")
	category := fs.String("category", signature.CategoryOther, "Signature category")
	outDir := fs.String("out", "", "Output directory (defaults to <SIGNATURE_DIR>/<category>)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sigID := *id
	if sigID == "" {
		sigID = signature.NewSignatureID(*category)
	}
	dir := *outDir
	if dir == "" {
		dir = filepath.Join(cfg.Dir, *category)
	}

	if _, err := signature.CreateTemplate(sigID, *category, dir, nil, nil); err != nil {
		return err
	}
	utils.GetLogger().InfoContext(ctx, "created template", slog.String("id", sigID), slog.String("dir", dir))
	fmt.Fprintf(out, "Template written to %s\n", filepath.Join(dir, sigID))
	return nil
}

func runValidate(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	path := fs.String("path", cfg.Dir, "Signature file or directory")
	format := fs.String("format", string(cfg.Format), "Format for directories (csv or json)")
	record := fs.Bool("report", false, "Append the outcome to the report log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	info, err := os.Stat(*path)
	if err != nil {
		return err
	}

	results := map[string]validator.Report{}
	if info.IsDir() {
		results, err = validator.ValidateDirectory(*path, signature.ParseFormat(*format))
		if err != nil {
			return err
		}
		for _, name := range sortedKeys(results) {
			printValidation(out, name, results[name])
		}
	} else {
		sig, report := validator.Check(*path, formatOf(*path))
		results[filepath.Base(*path)] = report
		printValidation(out, filepath.Base(*path), report)
		if sig != nil {
			printQuality(out, validator.CheckQuality(sig))
		}
	}

	if *record {
		return recordReport(ctx, cfg, models.ReportValidation, sortedKeys(results), results)
	}
	return nil
}

func runCompare(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	first := fs.String("a", "", "First signature file")
	second := fs.String("b", "", "Second signature file")
	bands := fs.String("bands", "", "Comma-separated focus band numbers, e.g. 13,16")
	record := fs.Bool("report", false, "Append the outcome to the report log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *first == "" || *second == "" {
		return errors.New("compare needs -a and -b")
	}

	focus, err := parseInts(*bands)
	if err != nil {
		return fmt.Errorf("invalid -bands: %w", err)
	}

	sig1, err := signature.Load(*first, formatOf(*first))
	if err != nil {
		return err
	}
	sig2, err := signature.Load(*second, formatOf(*second))
	if err != nil {
		return err
	}

	result := comparison.Compare(sig1, sig2, focus)
	fmt.Fprintf(out, "%s vs %s\n", sig1.ID, sig2.ID)
	printComparison(out, result)

	if *record {
		return recordReport(ctx, cfg, models.ReportComparison, []string{sig1.ID, sig2.ID}, result)
	}
	return nil
}

func runSimilar(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("similar", flag.ContinueOnError)
	target := fs.String("target", "", "Target signature file")
	dir := fs.String("dir", cfg.Dir, "Directory of candidate signatures")
	format := fs.String("format", string(cfg.Format), "Candidate format (csv or json)")
	threshold := fs.Float64("threshold", cfg.Threshold, "Minimum correlation")
	record := fs.Bool("report", false, "Append the outcome to the report log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *target == "" {
		return errors.New("similar needs -target")
	}

	sig, err := signature.Load(*target, formatOf(*target))
	if err != nil {
		return err
	}
	candidates, err := signature.LoadAll(*dir, signature.ParseFormat(*format))
	if err != nil {
		return err
	}

	matches := comparison.FindSimilar(sig, candidates, *threshold)
	fmt.Fprintf(out, "%d of %d signatures correlate with %s at >= %.2f\n", len(matches), len(candidates), sig.ID, *threshold)
	for _, m := range matches {
		fmt.Fprintf(out, "  %-40s %.4f\n", m.ID, m.Correlation)
	}

	if *record {
		return recordReport(ctx, cfg, models.ReportSimilarity, []string{sig.ID}, matches)
	}
	return nil
}

func runBatch(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	dir := fs.String("dir", cfg.Dir, "Directory of signatures")
	format := fs.String("format", string(cfg.Format), "Signature format (csv or json)")
	kind := fs.String("kind", string(signature.Reflectance), "Values analysed per band")
	record := fs.Bool("report", false, "Append the outcome to the report log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sigs, err := signature.LoadAll(*dir, signature.ParseFormat(*format))
	if err != nil {
		return err
	}

	result := comparison.CompareMultiple(sigs)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}

	analysis := comparison.AnalyzeBands(sigs, signature.ParseValueKind(*kind))
	if err := analysis.WriteReport(out); err != nil {
		return err
	}
	for _, issue := range analysis.CheckScaleIssues() {
		fmt.Fprintf(out, "WARNING: %s\n", issue)
	}

	if *record {
		return recordReport(ctx, cfg, models.ReportBatch, result.SignatureIDs, result)
	}
	return nil
}

func runPlot(ctx context.Context, cfg config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	path := fs.String("path", "", "Signature file or directory")
	format := fs.String("format", string(cfg.Format), "Format for directories (csv or json)")
	kind := fs.String("kind", string(signature.Reflectance), "reflectance, continuum_removed or index")
	indices := fs.Bool("indices", false, "Overlay gold pathfinder indices")
	cr := fs.Bool("cr", false, "Overlay continuum-removed values")
	outDir := fs.String("out", cfg.PlotDir, "Output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("plot needs -path")
	}

	info, err := os.Stat(*path)
	if err != nil {
		return err
	}
	valueKind := signature.ParseValueKind(*kind)

	var written []string
	if info.IsDir() {
		sigs, err := signature.LoadAll(*path, signature.ParseFormat(*format))
		if err != nil {
			return err
		}
		name := filepath.Base(filepath.Clean(*path))
		multi := filepath.Join(*outDir, fmt.Sprintf("%s_%s.png", name, valueKind))
		if err := plot.SavePNG(plot.RenderMultiple(sigs, valueKind, nil), multi); err != nil {
			return err
		}
		bars := filepath.Join(*outDir, name+"_gold_pathfinders.png")
		if err := plot.SavePNG(plot.RenderGoldPathfinders(sigs, nil), bars); err != nil {
			return err
		}
		written = append(written, multi, bars)
	} else {
		sig, err := signature.Load(*path, formatOf(*path))
		if err != nil {
			return err
		}
		target := filepath.Join(*outDir, fmt.Sprintf("%s_%s.png", sig.ID, valueKind))
		img := plot.RenderSignature(sig, valueKind, plot.Options{ShowIndices: *indices, ShowContinuumRemoved: *cr})
		if err := plot.SavePNG(img, target); err != nil {
			return err
		}
		written = append(written, target)
	}

	utils.GetLogger().InfoContext(ctx, "saved plots", slog.Int("count", len(written)))
	for _, p := range written {
		fmt.Fprintf(out, "Saved plot to: %s\n", p)
	}
	return nil
}

func recordReport(ctx context.Context, cfg config, kind string, ids []string, payload any) error {
	store := reports.NewStore(cfg.ReportPath)
	report, err := store.Record(kind, ids, payload)
	if err != nil {
		utils.GetLogger().ErrorContext(ctx, "failed to record report", slog.String("kind", kind), slog.Any("error", xerrors.New(err)))
		return err
	}
	utils.GetLogger().InfoContext(ctx, "recorded report", slog.String("kind", kind), slog.String("id", report.ID.String()))
	return nil
}

func printComparison(out io.Writer, result comparison.Result) {
	fmt.Fprintf(out, "Euclidean Distance: %.3f\n", result.EuclideanDistance)
	fmt.Fprintf(out, "Correlation: %.3f\n", result.Correlation)
	fmt.Fprintf(out, "Separability: %.3f\n", result.Separability)
	fmt.Fprintln(out, "Key Differences:")
	for _, diff := range result.KeyDifferences {
		fmt.Fprintf(out, "  %s: %.3f vs %.3f (diff: %.3f, %.1f%%)\n",
			diff.BandName, diff.Value1, diff.Value2, diff.Difference, diff.PercentDifference)
	}
}

func printValidation(out io.Writer, name string, report validator.Report) {
	if report.Valid {
		fmt.Fprintf(out, "%s: VALID\n", name)
		return
	}
	fmt.Fprintf(out, "%s: INVALID\n", name)
	for _, e := range report.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}
}

func printQuality(out io.Writer, q validator.Quality) {
	fmt.Fprintln(out, "Quality Metrics:")
	fmt.Fprintf(out, "  Has location: %t\n", q.HasLocation)
	fmt.Fprintf(out, "  Has source: %t\n", q.HasSource)
	fmt.Fprintf(out, "  Has statistics: %t\n", q.HasStatistics)
	fmt.Fprintf(out, "  Has continuum removed: %t\n", q.HasContinuumRemoved)
	fmt.Fprintf(out, "  Has index values: %t\n", q.HasIndexValues)
	fmt.Fprintf(out, "  Data completeness: %.1f%%\n", q.DataCompleteness*100)
}

// formatOf picks the record format from a file extension.
func formatOf(path string) signature.Format {
	return signature.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func parseFloats(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func parseInts(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
