package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"spectral-signatures/models"
	"spectral-signatures/signature"
	"spectral-signatures/utils"
)

func main() {
	id := flag.String("id", "", "Signature id (generated from the category when empty)")
	category := flag.String("category", signature.CategoryOther, "Signature category")
	out := flag.String("out", utils.GetEnv("SIGNATURE_DIR", "signatures"), "Root directory; files go to <out>/<category>/")
	pixel := flag.String("pixel", "", "JSON pixel sample ({\"values\": [...18], \"coords\": {...}}) to build from")
	export := flag.String("export", "", "Classification plugin CSV export to relabel")
	sensor := flag.String("sensor", "ASTER", "Source sensor recorded on pixel/export signatures")
	flag.Parse()

	sigID := *id
	if sigID == "" {
		sigID = signature.NewSignatureID(*category)
	}
	dir := filepath.Join(*out, *category)
	source := signature.Attributes{"sensor": signature.Text(*sensor)}

	var (
		sig *signature.Signature
		err error
	)
	switch {
	case *pixel != "":
		sig, err = fromPixel(*pixel, sigID, *category, source)
	case *export != "":
		sig, err = signature.CreateFromCSVExport(*export, sigID, *category, nil, source)
	default:
		sig, err = signature.CreateTemplate(sigID, *category, dir, nil, nil)
		if err == nil {
			fmt.Printf("Saved template %s to %s\n", sig.ID, dir)
			return
		}
	}
	if err != nil {
		log.Fatalf("failed to build signature: %v", err)
	}

	base := filepath.Join(dir, sig.ID)
	if err := sig.SaveCSV(base + signature.FormatCSV.Ext()); err != nil {
		log.Fatalf("failed to save signature: %v", err)
	}
	if err := sig.SaveJSON(base + signature.FormatJSON.Ext()); err != nil {
		log.Fatalf("failed to save signature: %v", err)
	}

	fmt.Printf("Saved signature %s to %s\n", sig.ID, dir)
}

func fromPixel(path, id, category string, source signature.Attributes) (*signature.Signature, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read pixel sample: %w", err)
	}

	var sample models.PixelSample
	if err := json.Unmarshal(data, &sample); err != nil {
		return nil, fmt.Errorf("failed to parse pixel sample: %w", err)
	}

	return signature.CreateFromPixel(sample, id, category, source)
}
