package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"bookrecon/internal/logger"
)

// DocumentAIExtractor extracts lines with a Document AI processor.
type DocumentAIExtractor struct {
	client *documentai.DocumentProcessorClient
	config Config
	log    zerolog.Logger
}

// NewDocumentAIExtractor creates a Document AI client for cfg.Location.
func NewDocumentAIExtractor(ctx context.Context, cfg Config) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, NewOCRError(op, ErrMissingProcessor, "")
	}
	if cfg.Location == "" {
		cfg.Location = "eu"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	opts := credentialOptions(cfg)
	hasCredentials := len(opts) > 0
	opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)))

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		if !hasCredentials {
			return nil, NewOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return &DocumentAIExtractor{
		client: client,
		config: cfg,
		log:    logger.WithComponent("ocr-documentai"),
	}, nil
}

// ProcessorName returns the full resource name of the configured processor.
func (d *DocumentAIExtractor) ProcessorName() string {
	return processorName(d.config)
}

func processorName(cfg Config) string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID)
}

// ExtractLines sends the PDF to the processor and splits the returned document text.
func (d *DocumentAIExtractor) ExtractLines(ctx context.Context, pdfData io.Reader) ([]string, error) {
	const op = "ExtractLines"

	pdfBytes, err := readPDF(op, pdfData)
	if err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: d.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdfBytes,
				MimeType: "application/pdf",
			},
		},
	}

	resp, err := d.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, d.handleProcessingError(op, err)
	}
	if resp.Document == nil || strings.TrimSpace(resp.Document.Text) == "" {
		return nil, NewOCRError(op, ErrEmptyDocument, "no text in Document AI response")
	}

	lines := SplitLines(resp.Document.Text)
	d.log.Debug().Int("pages", len(resp.Document.Pages)).Int("lines", len(lines)).Msg("Document processed")
	return lines, nil
}

// handleProcessingError maps Document AI failures onto OCR errors.
func (d *DocumentAIExtractor) handleProcessingError(op string, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "NOT_FOUND"):
		return NewOCRError(op, ErrMissingProcessor, fmt.Sprintf("processor not found: %s", d.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"):
		return NewOCRError(op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "context deadline exceeded"):
		return NewOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "context canceled"):
		return NewOCRError(op, context.Canceled, "processing canceled")
	default:
		return NewOCRError(op, ErrOCRFailed, errStr)
	}
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}
