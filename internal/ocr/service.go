// Package ocr turns invoice PDFs into the text lines the invoice parser reads.
//
// Two Google Cloud backends are available:
//   - Vision: synchronous document text detection (BatchAnnotateFiles).
//   - Document AI: a processor that returns the document text.
//
// Both return the text in reading order, split into trimmed non-empty lines.
//
// Credentials are taken from Config, which the CLI fills from the environment:
//   - GOOGLE_CREDENTIALS: inline JSON credentials string, OR
//   - GOOGLE_APPLICATION_CREDENTIALS: path to a service account JSON file
//
// Without either, application default credentials are used.
//
// Cloud Vision API Limitations:
//   - Maximum file size: 20MB for synchronous processing
//   - Maximum pages: 5 pages for synchronous processing
package ocr

import (
	"context"
	"io"
	"strings"
	"time"

	"google.golang.org/api/option"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024

	// MaxPagesSync is the maximum number of pages for synchronous processing
	MaxPagesSync = 5
)

// Engine names accepted by New.
const (
	EngineVision     = "vision"
	EngineDocumentAI = "documentai"
)

// LineExtractor extracts the text lines of a PDF document.
type LineExtractor interface {
	// ExtractLines returns the trimmed, non-empty lines of the document in reading order.
	ExtractLines(ctx context.Context, pdfData io.Reader) ([]string, error)

	// Close releases the underlying client.
	Close() error
}

// Config selects and configures an extraction backend.
type Config struct {
	Engine          string
	CredentialsJSON string
	CredentialsFile string

	// Document AI only
	ProjectID   string
	Location    string
	ProcessorID string
	Timeout     time.Duration
}

// New creates the extractor named by cfg.Engine.
func New(ctx context.Context, cfg Config) (LineExtractor, error) {
	switch cfg.Engine {
	case EngineVision, "":
		extractor, err := NewVisionExtractor(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return extractor, nil
	case EngineDocumentAI:
		extractor, err := NewDocumentAIExtractor(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return extractor, nil
	default:
		return nil, NewOCRError("New", ErrUnknownEngine, cfg.Engine)
	}
}

// SplitLines splits extracted text into trimmed lines, dropping blank ones.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// readPDF reads and validates the document bytes.
func readPDF(op string, pdfData io.Reader) ([]byte, error) {
	pdfBytes, err := io.ReadAll(pdfData)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to read PDF data")
	}

	if len(pdfBytes) > MaxFileSizeBytes {
		return nil, NewOCRError(op, ErrPDFTooLarge, sizeDetail(len(pdfBytes)))
	}

	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, NewOCRError(op, ErrInvalidPDF, "missing PDF header")
	}

	return pdfBytes, nil
}

// credentialOptions returns the client options for the configured credentials.
func credentialOptions(cfg Config) []option.ClientOption {
	switch {
	case cfg.CredentialsJSON != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))}
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}
	default:
		return nil
	}
}
