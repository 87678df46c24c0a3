package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a document JSON file against the document schema",
	RunE:  runValidate,
}

var (
	validateInput       string
	validatePrintSchema bool
)

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to document JSON file")
	validateCmd.Flags().BoolVar(&validatePrintSchema, "print-schema", false, "Print the document schema and exit")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	if validatePrintSchema {
		fmt.Println(schemas.DocumentSchema())
		return nil
	}
	if validateInput == "" {
		return fmt.Errorf("--in is required")
	}

	if err := schemas.ValidateDocumentFile(validateInput); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprintf(os.Stderr, "Validation failed:\n%s", validationErr.Error())
			return fmt.Errorf("document %s does not match the schema", validateInput)
		}
		return fmt.Errorf("failed to validate document: %w", err)
	}

	fmt.Printf("Validation passed: %s\n", validateInput)
	return nil
}
