package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"bookrecon/internal/dataset"
	"bookrecon/internal/invoice"
	"bookrecon/internal/logger"
	"bookrecon/internal/ocr"
	"bookrecon/pkg/models"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices [folder-path]",
	Short: "Parse all invoice documents in a folder",
	Long: `Parse all invoice documents in a folder and write them as JSON.

PDF files are sent through OCR (see "bookrecon ocr"). A .txt file holding the
text lines of a PDF is used instead of the PDF with the same name, so
documents already sent through OCR are not sent again.

Invoice number and date are taken from the file name, e.g.
31234-20230115-2023001234.pdf or RE_20230115_31234_R2023001234.pdf.

Optional environment variables:
  BATCH_WORKERS - Number of parallel workers (default: 12)
  OCR_ENGINE    - vision or documentai (default: vision)`,
	Example: `  # Parse all invoices of January
  bookrecon invoices ./rechnungen/2023-01 -o invoices.json

  # Only use existing .txt files, never call OCR
  bookrecon invoices ./rechnungen --offline`,
	Args: cobra.ExactArgs(1),
	RunE: runInvoices,
}

// Processing status of a document
const (
	statusSuccess = "success"
	statusWarning = "warning"
	statusError   = "error"
)

// InvoiceResult represents the result of processing a single document
type InvoiceResult struct {
	Filename string
	Invoice  *models.InvoiceDocument
	Error    error
	Status   string
	Index    int // Original order index
}

// invoiceJob represents a document processing job
type invoiceJob struct {
	Source invoiceSource
	Index  int
}

// invoiceSource is one document; Path is a PDF or a .txt file with its lines
type invoiceSource struct {
	Path string
	Name string // PDF file name carrying number and date
	Text bool
}

func init() {
	rootCmd.AddCommand(invoicesCmd)

	invoicesCmd.Flags().StringP("output", "o", "invoices.json", "Output JSON file")
	invoicesCmd.Flags().Int("workers", 0, "Number of parallel workers (default: BATCH_WORKERS)")
	invoicesCmd.Flags().Bool("offline", false, "Skip PDFs without .txt lines instead of calling OCR")
	invoicesCmd.Flags().Int("timeout", 1800, "Processing timeout in seconds")
	invoicesCmd.Flags().Bool("verbose", false, "Show detailed processing information")
}

func runInvoices(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices")

	conf, err := appConfig()
	if err != nil {
		return err
	}

	folderPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	numWorkers, _ := cmd.Flags().GetInt("workers")
	offline, _ := cmd.Flags().GetBool("offline")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if numWorkers <= 0 {
		numWorkers = conf.BatchWorkers
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	sources, err := findInvoiceFiles(folderPath)
	if err != nil {
		return fmt.Errorf("failed to find invoice files: %w", err)
	}

	needsOCR := false
	for _, s := range sources {
		needsOCR = needsOCR || !s.Text
	}
	if offline && needsOCR {
		kept := sources[:0]
		for _, s := range sources {
			if s.Text {
				kept = append(kept, s)
			}
		}
		log.Warn().Int("skipped", len(sources)-len(kept)).Msg("Skipping PDFs without text lines")
		sources = kept
		needsOCR = false
	}

	log.Info().
		Str("folder", folderPath).
		Int("documents", len(sources)).
		Int("workers", numWorkers).
		Bool("ocr", needsOCR).
		Msg("Starting invoice processing")

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("                         RECHNUNGEN EINLESEN")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Ordner: %s\n", folderPath)

	if len(sources) == 0 {
		fmt.Println("Keine Rechnungen im Ordner gefunden.")
		return nil
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	var extractor ocr.LineExtractor
	if needsOCR {
		extractor, err = createExtractor(ctx, conf, log)
		if err != nil {
			return err
		}
		defer extractor.Close()
	}

	fmt.Printf("Verarbeite %d Dokumente mit %d parallelen Workern...\n", len(sources), numWorkers)
	fmt.Println()

	bar := progressbar.NewOptions(len(sources),
		progressbar.OptionSetDescription("Rechnungen"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	results := processInvoicesInParallel(ctx, sources, invoice.NewParser(), extractor, numWorkers, bar, log, verbose)
	fmt.Println()

	var invoices []models.InvoiceDocument
	counts := make(map[string]int)
	for _, result := range results {
		counts[result.Status]++
		if result.Invoice != nil && result.Status != statusError {
			invoices = append(invoices, *result.Invoice)
		}
	}

	if err := dataset.WriteJSON(outputPath, invoices); err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("                 ERGEBNIS")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Erfolgreich: %d\n", counts[statusSuccess])
	if counts[statusWarning] > 0 {
		fmt.Printf("Mit Warnungen: %d\n", counts[statusWarning])
	}
	if counts[statusError] > 0 {
		fmt.Printf("Fehler: %d\n", counts[statusError])
		for _, result := range results {
			if result.Status == statusError {
				fmt.Printf("  %s: %v\n", result.Filename, result.Error)
			}
		}
	}
	fmt.Printf("Datei: %s\n", outputPath)
	fmt.Println(strings.Repeat("=", 80))

	log.Info().
		Int("total", len(sources)).
		Int("success", counts[statusSuccess]).
		Int("warnings", counts[statusWarning]).
		Int("errors", counts[statusError]).
		Msg("Invoice processing completed")

	return nil
}

// findInvoiceFiles finds all PDFs in the folder. A .txt file next to a PDF, or
// one named like an invoice PDF, replaces the PDF.
func findInvoiceFiles(folderPath string) ([]invoiceSource, error) {
	byName := make(map[string]invoiceSource)

	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(info.Name()))
		base := strings.TrimSuffix(path, filepath.Ext(path))

		switch ext {
		case ".pdf":
			if _, ok := byName[base]; !ok {
				byName[base] = invoiceSource{Path: path, Name: info.Name()}
			}
		case ".txt":
			name := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name())) + ".pdf"
			byName[base] = invoiceSource{Path: path, Name: name, Text: true}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sources := make([]invoiceSource, 0, len(byName))
	for _, s := range byName {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Path < sources[j].Path
	})
	return sources, nil
}

// processSingleInvoice reads and parses one document
func processSingleInvoice(ctx context.Context, source invoiceSource, parser *invoice.Parser, extractor ocr.LineExtractor) InvoiceResult {
	result := InvoiceResult{
		Filename: source.Name,
		Status:   statusError,
	}

	lines, err := readLines(ctx, source, extractor)
	if err != nil {
		result.Error = err
		return result
	}

	doc, err := parser.ParseFile(source.Name, lines)
	result.Invoice = doc
	result.Error = err

	switch {
	case err == nil:
		result.Status = statusSuccess
	case errors.Is(err, invoice.ErrEmptyDocument):
		result.Status = statusError
	default:
		result.Status = statusWarning
	}
	return result
}

func readLines(ctx context.Context, source invoiceSource, extractor ocr.LineExtractor) ([]string, error) {
	if source.Text {
		data, err := os.ReadFile(source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read text lines: %w", err)
		}
		return ocr.SplitLines(string(data)), nil
	}

	if extractor == nil {
		return nil, fmt.Errorf("no OCR extractor configured for %s", source.Name)
	}

	lines, err := extractFile(ctx, extractor, source.Path)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	return lines, nil
}

// processInvoicesInParallel processes documents using a worker pool pattern
func processInvoicesInParallel(ctx context.Context, sources []invoiceSource, parser *invoice.Parser, extractor ocr.LineExtractor, numWorkers int, bar *progressbar.ProgressBar, log zerolog.Logger, verbose bool) []InvoiceResult {
	jobs := make(chan invoiceJob, len(sources))
	results := make([]InvoiceResult, len(sources))

	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range jobs {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.Source.Path).
					Int("index", job.Index+1).
					Msg("Worker processing document")

				result := processSingleInvoice(ctx, job.Source, parser, extractor)
				result.Index = job.Index

				// Store result in correct position
				results[job.Index] = result

				mu.Lock()
				_ = bar.Add(1)
				mu.Unlock()

				if verbose || result.Status != statusSuccess {
					event := log.Info()
					if result.Status != statusSuccess {
						event = log.Warn().Err(result.Error)
					}
					if result.Invoice != nil {
						event = event.Str("invoice", result.Invoice.ID).Str("total", result.Invoice.GrossTotal)
					}
					event.Str("file", result.Filename).Str("status", result.Status).Msg("Document processed")
				}
			}
		}(w)
	}

	for i, source := range sources {
		jobs <- invoiceJob{Source: source, Index: i}
	}
	close(jobs)

	wg.Wait()

	return results
}
