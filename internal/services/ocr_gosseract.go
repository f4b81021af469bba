//go:build !windows

package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

// LibraryProvider runs Tesseract in-process through the gosseract bindings.
// A single client is created at startup and reused for every request; gosseract
// clients are not safe for concurrent use, so calls are serialized with a mutex.
type LibraryProvider struct {
	mu        sync.Mutex
	client    *gosseract.Client
	languages string
}

// NewLibraryProvider creates the in-process OCR provider. languages uses
// tesseract notation, e.g. "spa+eng".
func NewLibraryProvider(languages string) (*LibraryProvider, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(splitLanguages(languages)...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &LibraryProvider{
		client:    client,
		languages: languages,
	}, nil
}

// Kind identifies this provider
func (p *LibraryProvider) Kind() models.ProviderKind {
	return models.ProviderLibrary
}

// Extract runs OCR on the image bytes. The blocking library call is raced
// against ctx; on cancellation the call is abandoned and finishes in the
// background while still holding the client lock.
func (p *LibraryProvider) Extract(ctx context.Context, image []byte, languages string) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		text, err := p.run(image, languages)
		ch <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}

func (p *LibraryProvider) run(image []byte, languages string) (string, error) {
	// gosseract reads from a file path
	tmpFile, err := os.CreateTemp("", "extract-*.img")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(image); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	tmpFile.Close()

	p.mu.Lock()
	defer p.mu.Unlock()

	if languages != "" && languages != p.languages {
		if err := p.client.SetLanguage(splitLanguages(languages)...); err != nil {
			return "", fmt.Errorf("failed to set OCR language: %w", err)
		}
		p.languages = languages
	}

	if err := p.client.SetImage(tmpFile.Name()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := p.client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return text, nil
}

// Close releases OCR resources
func (p *LibraryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// splitLanguages converts tesseract notation ("spa+eng") to gosseract arguments
func splitLanguages(languages string) []string {
	if languages == "" {
		return []string{"eng"}
	}
	return strings.Split(languages, "+")
}
