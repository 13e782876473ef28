package service

import (
	"context"
	"strings"

	"github.com/cellar-tracker/internal/adapter"
	"github.com/cellar-tracker/internal/errors"
	"github.com/cellar-tracker/internal/logging"
)

// LabelParser parses a wine label photo into structured fields
type LabelParser interface {
	ParseLabel(ctx context.Context, imageBase64 string) (*adapter.LabelScanResult, error)
}

// ScanService turns label photos into wine field suggestions. It never
// persists anything; the client reviews the extraction and creates the wine
// in a separate call.
type ScanService struct {
	parser LabelParser
}

// NewScanService creates a new scan service
func NewScanService(parser LabelParser) *ScanService {
	return &ScanService{parser: parser}
}

// ScanResult wraps the extracted fields with an aggregate confidence
type ScanResult struct {
	Fields     *adapter.LabelScanResult `json:"fields"`
	Confidence float64                  `json:"confidence"`
}

// ScanLabel extracts wine details from a base64-encoded label image.
// Single call, no retries; a failed scan is reported straight back.
func (s *ScanService) ScanLabel(ctx context.Context, imageBase64 string) (*ScanResult, error) {
	imageBase64 = strings.TrimSpace(imageBase64)
	if imageBase64 == "" {
		return nil, errors.NewInvalidParameterError("image", "must not be empty")
	}

	result, err := s.parser.ParseLabel(ctx, imageBase64)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Label scan failed")
		return nil, errors.NewProviderError("vision", err)
	}

	return &ScanResult{
		Fields:     result,
		Confidence: result.OverallConfidence(),
	}, nil
}
