package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spectral-signatures/comparison"
	"spectral-signatures/signature"
	"spectral-signatures/utils"
	"spectral-signatures/validator"
)

// Config holds library build configuration
type Config struct {
	RootDir    string
	OutputPath string
	Format     signature.Format
	KeepBad    bool
	Verbose    bool
}

// BuildStats tracks the build.
type BuildStats struct {
	TotalFiles     int
	ValidCount     int
	InvalidCount   int
	CategoryCounts map[string]int
}

func main() {
	config := parseFlags()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("=== Signature Library Build ===\n")
	log.Printf("Signature root: %s\n", config.RootDir)
	log.Printf("Output library: %s\n", config.OutputPath)
	log.Println()

	startTime := time.Now()

	log.Println("Step 1: Discovering category directories...")
	subdirs, err := discoverSubdirectories(config.RootDir)
	if err != nil {
		log.Fatalf("ERROR: Failed to read signature directory: %v", err)
	}
	if len(subdirs) == 0 {
		log.Fatalf("ERROR: No category directories found in %s", config.RootDir)
	}
	log.Printf("Found %d categories\n", len(subdirs))
	log.Println()

	log.Println("Step 2: Loading and validating signatures...")
	library, stats := collectSignatures(subdirs, config)
	if len(library) == 0 {
		log.Fatalf("ERROR: No signatures were collected")
	}
	log.Println()

	log.Println("Step 3: Saving library to disk...")
	if err := saveLibrary(library, config.OutputPath); err != nil {
		log.Fatalf("ERROR: Failed to save library: %v", err)
	}
	log.Printf("Library saved to: %s\n", config.OutputPath)
	log.Println()

	analysis := comparison.AnalyzeBands(library, signature.Reflectance)
	if err := analysis.WriteReport(os.Stdout); err != nil {
		log.Printf("WARNING: failed to print band analysis: %v\n", err)
	}
	for _, issue := range analysis.CheckScaleIssues() {
		log.Printf("WARNING: %s\n", issue)
	}

	printSummary(stats, startTime)
}

func parseFlags() Config {
	config := Config{}
	var format string

	flag.StringVar(&config.RootDir, "dir", utils.GetEnv("SIGNATURE_DIR", "signatures"),
		"Directory containing signatures organized by category folders")
	flag.StringVar(&config.OutputPath, "output", filepath.Join("library", "signatures.json"),
		"Output path for the combined library JSON file")
	flag.StringVar(&format, "format", utils.GetEnv("SIGNATURE_FORMAT", "csv"),
		"Signature file format (csv or json)")
	flag.BoolVar(&config.KeepBad, "keep-invalid", false,
		"Include signatures that fail validation")
	flag.BoolVar(&config.Verbose, "verbose", false,
		"Enable verbose logging")

	flag.Parse()
	config.Format = signature.ParseFormat(format)

	if _, err := os.Stat(config.RootDir); os.IsNotExist(err) {
		log.Fatalf("ERROR: Signature directory does not exist: %s", config.RootDir)
	}

	return config
}

func discoverSubdirectories(rootDir string) ([]string, error) {
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, err
	}

	var subdirs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		subdirs = append(subdirs, filepath.Join(rootDir, entry.Name()))
	}

	return subdirs, nil
}

func collectSignatures(subdirs []string, config Config) ([]*signature.Signature, BuildStats) {
	var library []*signature.Signature
	stats := BuildStats{CategoryCounts: make(map[string]int)}

	for _, subdir := range subdirs {
		sigs, err := signature.LoadAll(subdir, config.Format)
		if err != nil {
			log.Printf("  WARNING: Failed to read directory %s: %v\n", subdir, err)
			continue
		}
		if len(sigs) == 0 {
			log.Printf("  WARNING: No signature files in %s\n", subdir)
			continue
		}

		for _, sig := range sigs {
			stats.TotalFiles++
			report := validator.Validate(sig)
			if !report.Valid {
				stats.InvalidCount++
				log.Printf("  INVALID %s: %s\n", sig.ID, strings.Join(report.Errors, "; "))
				if !config.KeepBad {
					continue
				}
			} else {
				stats.ValidCount++
			}

			if config.Verbose {
				quality := validator.CheckQuality(sig)
				log.Printf("  %s/%s completeness %.1f%%\n", sig.Category, sig.ID, quality.DataCompleteness*100)
			}

			library = append(library, sig)
			stats.CategoryCounts[sig.Category]++
		}
	}

	return library, stats
}

func saveLibrary(library []*signature.Signature, outputPath string) error {
	if err := utils.CreateFolder(filepath.Dir(outputPath)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(library, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal library: %w", err)
	}

	tempPath := outputPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, outputPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func printSummary(stats BuildStats, startTime time.Time) {
	log.Println("=== Build Summary ===")
	log.Printf("Signature files: %d\n", stats.TotalFiles)
	log.Printf("Valid: %d\n", stats.ValidCount)
	log.Printf("Invalid: %d\n", stats.InvalidCount)
	log.Println()

	log.Println("Category distribution:")
	for category, count := range stats.CategoryCounts {
		log.Printf("  %-20s: %3d signatures\n", category, count)
	}
	log.Println()

	log.Printf("Total build time: %.2f seconds\n", time.Since(startTime).Seconds())
	log.Println("✓ Library complete!")
}
