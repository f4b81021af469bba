package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

var (
	// ErrProviderUnavailable means the requested backend was not initialized at startup
	ErrProviderUnavailable = errors.New("ocr provider unavailable")
	// ErrNoText means the provider ran but detected no legible text
	ErrNoText = errors.New("no text detected in image")
	// ErrUnsupportedFormat means the upload could not be decoded as an image
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge means the image exceeds a provider or upload size limit
	ErrImageTooLarge = errors.New("image too large")
)

// Provider is the uniform interface over the interchangeable OCR backends.
// Extract blocks until the engine finishes or ctx is done. languages is an
// engine hint in tesseract notation ("spa+eng"); empty means the provider default.
type Provider interface {
	Kind() models.ProviderKind
	Extract(ctx context.Context, image []byte, languages string) (string, error)
}

// ProviderRegistry holds the providers that initialized successfully at startup.
// Construction failures are reported once at boot; requests for a missing kind
// get ErrProviderUnavailable instead of a late initialization attempt.
type ProviderRegistry struct {
	providers map[models.ProviderKind]Provider
}

// NewProviderRegistry creates an empty registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[models.ProviderKind]Provider),
	}
}

// Register adds a provider, replacing any previous one of the same kind
func (r *ProviderRegistry) Register(p Provider) {
	r.providers[p.Kind()] = p
}

// Get returns the provider for the given kind
func (r *ProviderRegistry) Get(kind models.ProviderKind) (Provider, error) {
	p, ok := r.providers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, kind)
	}
	return p, nil
}

// Kinds returns the registered provider kinds in a stable order
func (r *ProviderRegistry) Kinds() []models.ProviderKind {
	kinds := make([]models.ProviderKind, 0, len(r.providers))
	for k := range r.providers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Len returns the number of registered providers
func (r *ProviderRegistry) Len() int {
	return len(r.providers)
}
