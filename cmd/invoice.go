package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"bookrecon/internal/invoice"
	"bookrecon/internal/logger"
	"bookrecon/internal/ocr"
	"bookrecon/pkg/models"
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice [file]",
	Short: "Parse a single invoice document",
	Long: `Parse one invoice of the wholesaler into gross total, shipping cost and
tax breakdown.

The file is either a PDF, which is sent through OCR first, or a .txt file
holding the text lines written by "bookrecon ocr". Invoice number and date
are taken from the file name.

Fields whose anchor is missing in the document fall back to a default and
are listed under "fallbacks".`,
	Example: `  # Parse an invoice PDF
  bookrecon invoice 31234-20230115-2023001234.pdf

  # Parse previously extracted lines and save the result
  bookrecon invoice RE_20230115_31234_R2023001234.txt -o invoice.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoice,
}

// InvoiceOutput represents the JSON output structure for invoice processing
type InvoiceOutput struct {
	// Invoice contains the parsed document
	Invoice *models.InvoiceDocument `json:"invoice"`

	// Warning is set when fields fell back to defaults
	Warning string `json:"warning,omitempty"`

	// Metadata contains processing information
	Metadata ProcessingMetadata `json:"metadata"`
}

// ProcessingMetadata contains information about the processing operation
type ProcessingMetadata struct {
	FileName           string        `json:"file_name"`
	Lines              int           `json:"lines"`
	ProcessedAt        time.Time     `json:"processed_at"`
	ProcessingDuration time.Duration `json:"processing_duration"`
	Source             string        `json:"source"`
}

func init() {
	rootCmd.AddCommand(invoiceCmd)

	invoiceCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	invoiceCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runInvoice(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoice")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	path := args[0]
	source := invoiceSource{Path: path, Name: filepath.Base(path)}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		source.Text = true
		source.Name = strings.TrimSuffix(source.Name, filepath.Ext(source.Name)) + ".pdf"
	}

	log.Info().
		Str("file", path).
		Str("output", outputPath).
		Bool("text", source.Text).
		Msg("Starting invoice processing")

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	var extractor ocr.LineExtractor
	if !source.Text {
		if _, err := validatePDFFile(path, log); err != nil {
			return err
		}
		extractor, err = createExtractor(ctx, conf, log)
		if err != nil {
			return err
		}
		defer extractor.Close()
	}

	startTime := time.Now()
	lines, err := readLines(ctx, source, extractor)
	if err != nil {
		if !source.Text {
			return handleOCRError(err, log)
		}
		return err
	}

	doc, err := invoice.NewParser().ParseFile(source.Name, lines)
	output := InvoiceOutput{
		Invoice: doc,
		Metadata: ProcessingMetadata{
			FileName:           filepath.Base(path),
			Lines:              len(lines),
			ProcessedAt:        time.Now(),
			ProcessingDuration: time.Since(startTime),
			Source:             "ocr",
		},
	}
	if source.Text {
		output.Metadata.Source = "text"
	}

	if err != nil {
		if errors.Is(err, invoice.ErrEmptyDocument) {
			log.Error().Err(err).Str("file", path).Msg("No invoice fields found")
			return fmt.Errorf("no invoice fields found in %s: %w", path, err)
		}
		output.Warning = err.Error()
		log.Warn().Err(err).Strs("fallbacks", doc.Fallbacks).Msg("Invoice parsed with fallbacks")
	}

	log.Info().
		Str("invoice", doc.ID).
		Str("date", doc.Date).
		Str("gross_total", doc.GrossTotal).
		Dur("duration", output.Metadata.ProcessingDuration).
		Msg("Invoice processing completed")

	return outputInvoiceResults(output, outputPath, log)
}

// outputInvoiceResults formats and outputs the invoice processing results as JSON
func outputInvoiceResults(output InvoiceOutput, outputPath string, log zerolog.Logger) error {
	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal invoice data to JSON")
		return fmt.Errorf("failed to create JSON output: %w", err)
	}

	if outputPath == "" {
		if _, err := os.Stdout.Write(jsonData); err != nil {
			log.Error().Err(err).Msg("Failed to write to stdout")
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Println()
		return nil
	}

	if err := os.WriteFile(outputPath, jsonData, 0644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", outputPath).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", outputPath).
		Int("bytes", len(jsonData)).
		Msg("Invoice data written to file")

	return nil
}
