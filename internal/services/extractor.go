package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

var (
	// ErrEmptyUpload means no image bytes were submitted
	ErrEmptyUpload = errors.New("empty upload")
	// ErrUploadTooLarge means the upload exceeds the configured limit
	ErrUploadTooLarge = errors.New("upload too large")
)

// fallbackOrder is the chain tried when the caller requests fallback:
// cheapest first, the metered cloud API last.
var fallbackOrder = []models.ProviderKind{
	models.ProviderLibrary,
	models.ProviderBinary,
	models.ProviderCloud,
}

// ExtractRequest describes one extraction call
type ExtractRequest struct {
	Image       []byte
	Filename    string
	ContentType string
	Kind        models.ProviderKind
	Language    string
	// Fallback makes the extractor try the remaining providers when the
	// chosen one fails. Off by default so cost and latency stay predictable.
	Fallback bool
}

// Extractor validates uploads and dispatches them to a provider. A weighted
// semaphore bounds how many OCR calls run at once; extraction is the
// latency-dominant step and must not be able to exhaust the process.
type Extractor struct {
	registry *ProviderRegistry
	sem      *semaphore.Weighted
	maxBytes int64
}

// NewExtractor creates an extractor over the given registry
func NewExtractor(registry *ProviderRegistry, concurrency, maxUploadBytes int64) *Extractor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Extractor{
		registry: registry,
		sem:      semaphore.NewWeighted(concurrency),
		maxBytes: maxUploadBytes,
	}
}

// Extract validates the request and runs OCR, returning the cleaned text and
// the provider that produced it.
func (e *Extractor) Extract(ctx context.Context, req *ExtractRequest) (*models.ExtractionResponse, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.sem.Release(1)

	var lastErr error
	for _, kind := range e.chain(req) {
		provider, err := e.registry.Get(kind)
		if err != nil {
			lastErr = err
			continue
		}

		text, err := provider.Extract(ctx, req.Image, req.Language)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		text = finishText(kind, text)
		if text == "" {
			lastErr = ErrNoText
			continue
		}

		return &models.ExtractionResponse{
			Text:           text,
			Provider:       kind,
			SourceFilename: req.Filename,
		}, nil
	}

	if lastErr == nil {
		lastErr = ErrProviderUnavailable
	}
	return nil, lastErr
}

func (e *Extractor) validate(req *ExtractRequest) error {
	if len(req.Image) == 0 {
		return ErrEmptyUpload
	}
	if e.maxBytes > 0 && int64(len(req.Image)) > e.maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrUploadTooLarge, len(req.Image), e.maxBytes)
	}
	if req.ContentType != "" && !strings.HasPrefix(req.ContentType, "image/") {
		return fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, req.ContentType)
	}
	if !req.Kind.Valid() {
		return fmt.Errorf("%w: unknown provider %q", ErrProviderUnavailable, req.Kind)
	}
	return ValidateImage(req.Image)
}

// chain returns the providers to try, chosen kind first
func (e *Extractor) chain(req *ExtractRequest) []models.ProviderKind {
	if !req.Fallback {
		return []models.ProviderKind{req.Kind}
	}

	chain := []models.ProviderKind{req.Kind}
	for _, kind := range fallbackOrder {
		if kind != req.Kind {
			chain = append(chain, kind)
		}
	}
	return chain
}

// finishText applies the cleanup pipeline to local engine output; the cloud
// engine already returns post-processed text, which is only trimmed.
func finishText(kind models.ProviderKind, text string) string {
	if kind == models.ProviderCloud {
		return strings.TrimSpace(text)
	}
	return CleanText(text)
}
