package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"spectral-signatures/signature"
	"spectral-signatures/utils"
	"spectral-signatures/validator"
)

// Validate every signature file in a directory and print per-file verdicts.
func main() {
	dir := flag.String("dir", utils.GetEnv("SIGNATURE_DIR", "signatures"), "Directory of signature files")
	format := flag.String("format", utils.GetEnv("SIGNATURE_FORMAT", "csv"), "Signature format (csv or json)")
	flag.Parse()

	fileFormat := signature.ParseFormat(*format)
	results, err := validator.ValidateDirectory(*dir, fileFormat)
	if err != nil {
		log.Fatalf("Failed to validate signatures: %v", err)
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("=== Checking Signature Files ===")
	fmt.Printf("Directory: %s (%s)\n", *dir, fileFormat)
	fmt.Printf("Total files: %d\n\n", len(results))

	validCount := 0
	for i, name := range names {
		report := results[name]
		fmt.Printf("%d. %s\n", i+1, name)
		if report.Valid {
			fmt.Println("   VALID")
			validCount++
		} else {
			fmt.Println("   INVALID")
			for _, e := range report.Errors {
				fmt.Printf("   - %s\n", e)
			}
		}
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Valid: %d\n", validCount)
	fmt.Printf("Invalid: %d\n", len(results)-validCount)
}
