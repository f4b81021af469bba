//go:build windows

package services

import (
	"context"
	"errors"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

// LibraryProvider is a stub on Windows; run in the Docker container instead
type LibraryProvider struct{}

// NewLibraryProvider reports that the in-process provider is unavailable
func NewLibraryProvider(languages string) (*LibraryProvider, error) {
	return nil, errors.New("in-process OCR is not available on Windows - run in Docker container")
}

// Kind identifies this provider
func (p *LibraryProvider) Kind() models.ProviderKind {
	return models.ProviderLibrary
}

// Extract always fails on Windows
func (p *LibraryProvider) Extract(ctx context.Context, image []byte, languages string) (string, error) {
	return "", errors.New("in-process OCR is not available on Windows")
}

// Close releases OCR resources
func (p *LibraryProvider) Close() error {
	return nil
}
