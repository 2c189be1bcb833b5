package ocr

import (
	"context"
	"fmt"
	"io"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/rs/zerolog"

	"bookrecon/internal/logger"
)

// VisionExtractor extracts lines with Google Cloud Vision document text detection.
type VisionExtractor struct {
	client *vision.ImageAnnotatorClient
	log    zerolog.Logger
}

// NewVisionExtractor creates a Vision client from the configured credentials.
func NewVisionExtractor(ctx context.Context, cfg Config) (*VisionExtractor, error) {
	const op = "NewVisionExtractor"

	opts := credentialOptions(cfg)
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, NewOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, "failed to create Vision client")
	}

	return &VisionExtractor{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}, nil
}

// ExtractLines runs document text detection on all pages of the PDF.
func (v *VisionExtractor) ExtractLines(ctx context.Context, pdfData io.Reader) ([]string, error) {
	const op = "ExtractLines"

	pdfBytes, err := readPDF(op, pdfData)
	if err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdfBytes,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, WrapOCRError(op, ctx.Err(), "Vision API call canceled")
		}
		return nil, NewOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}

	if len(resp.Responses) == 0 {
		return nil, NewOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, NewOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.Error.Message))
	}

	text, err := visionText(fileResp)
	if err != nil {
		return nil, WrapOCRError(op, err, "failed to process Vision API response")
	}

	lines := SplitLines(text)
	v.log.Debug().Int("pages", len(fileResp.Responses)).Int("lines", len(lines)).Msg("Document text detected")
	return lines, nil
}

// visionText concatenates the full text annotation of every page.
func visionText(fileResp *visionpb.AnnotateFileResponse) (string, error) {
	pageCount := len(fileResp.Responses)
	if pageCount == 0 {
		return "", ErrEmptyDocument
	}
	if pageCount > MaxPagesSync {
		return "", NewOCRError("visionText", ErrTooManyPages, fmt.Sprintf("document has %d pages", pageCount))
	}

	var text strings.Builder
	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return "", fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		text.WriteString(page.FullTextAnnotation.Text)
		text.WriteString("\n")
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyDocument
	}
	return text.String(), nil
}

// Close closes the underlying Vision client.
func (v *VisionExtractor) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
