package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/tools/imports"
)

func main() {
	gattPath := flag.String("gatt", "", "Path to the attribute table YAML (docs/gatt/)")
	outputPath := flag.String("output", "", "Output path for the generated Go file")
	flag.Parse()

	if *gattPath == "" || *outputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: wisp-gattgen -gatt <path> -output <path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*gattPath, *outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(gattPath, outputPath string) error {
	def, err := LoadServiceDef(gattPath)
	if err != nil {
		return fmt.Errorf("loading attribute table: %w", err)
	}

	code, err := GenerateAttributeTable(def)
	if err != nil {
		return fmt.Errorf("generating attribute table: %w", err)
	}

	if err := writeFormatted(outputPath, code); err != nil {
		return err
	}
	fmt.Printf("  generated %s\n", outputPath)

	return nil
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
