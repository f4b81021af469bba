package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

// BinaryProvider shells out to a local tesseract binary. It is the fallback
// for builds without the CGO bindings and lets operators pin a specific
// tesseract installation via TESSERACT_PATH.
type BinaryProvider struct {
	path      string
	languages string
}

// NewBinaryProvider resolves the tesseract binary up front so a missing
// installation is reported at startup, not on the first request.
func NewBinaryProvider(path, languages string) (*BinaryProvider, error) {
	if path == "" {
		path = "tesseract"
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found at %q: %w", path, err)
	}

	return &BinaryProvider{
		path:      resolved,
		languages: languages,
	}, nil
}

// Kind identifies this provider
func (p *BinaryProvider) Kind() models.ProviderKind {
	return models.ProviderBinary
}

// Extract writes the image to a temp file and runs tesseract against it.
// The subprocess is killed when ctx is cancelled.
func (p *BinaryProvider) Extract(ctx context.Context, image []byte, languages string) (string, error) {
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

	if languages == "" {
		languages = p.languages
	}

	args := []string{tmpFile.Name(), "stdout"}
	if languages != "" {
		args = append(args, "-l", languages)
	}

	cmd := exec.CommandContext(ctx, p.path, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("tesseract failed: %s", msg)
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	return text, nil
}
