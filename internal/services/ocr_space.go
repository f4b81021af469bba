package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cobrapixel/ocr-extractor/internal/models"
)

const (
	defaultOCRSpaceURL = "https://api.ocr.space/parse/image"

	// OCR.Space rejects uploads above ~1.5 MB
	maxCloudImageBytes = 1_500_000

	// maxCloudDimension is the downscale bound applied before submission
	maxCloudDimension = 1280
)

// CloudProvider submits images to the OCR.Space API. Every call carries a
// bounded timeout on top of the request context.
type CloudProvider struct {
	apiKey   string
	language string
	client   *http.Client

	// Endpoint is overridable for tests; defaults to the public API
	Endpoint string
}

// NewCloudProvider creates the OCR.Space provider. A missing API key is a
// configuration error reported at startup.
func NewCloudProvider(apiKey, language string, timeout time.Duration) (*CloudProvider, error) {
	if apiKey == "" {
		return nil, errors.New("OCR_SPACE_API_KEY is not configured")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &CloudProvider{
		apiKey:   apiKey,
		language: language,
		client:   &http.Client{Timeout: timeout},
		Endpoint: defaultOCRSpaceURL,
	}, nil
}

// Kind identifies this provider
func (p *CloudProvider) Kind() models.ProviderKind {
	return models.ProviderCloud
}

// ocrSpaceResponse is the subset of the OCR.Space reply we consume
type ocrSpaceResponse struct {
	ParsedResults []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
	IsErroredOnProcessing bool            `json:"IsErroredOnProcessing"`
	ErrorMessage          json.RawMessage `json:"ErrorMessage"`
	ErrorDetails          string          `json:"ErrorDetails"`
}

// Extract downscales the image if needed and posts it to OCR.Space.
func (p *CloudProvider) Extract(ctx context.Context, image []byte, languages string) (string, error) {
	prepared, err := PrepareForUpload(image, maxCloudDimension)
	if err != nil {
		return "", err
	}

	if len(prepared) > maxCloudImageBytes {
		return "", fmt.Errorf("%w: %d bytes after compression (limit %d)", ErrImageTooLarge, len(prepared), maxCloudImageBytes)
	}

	if languages == "" {
		languages = p.language
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"apikey":            p.apiKey,
		"language":          languages,
		"isOverlayRequired": "false",
		"OCREngine":         "2",
		"scale":             "true",
		"detectOrientation": "true",
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
	}

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(prepared); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr.space request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ocr.space response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr.space returned status %d", resp.StatusCode)
	}

	var parsed ocrSpaceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse ocr.space response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocr.space rejected the image: %s", parsed.errorText())
	}

	var texts []string
	for _, result := range parsed.ParsedResults {
		if result.ParsedText != "" {
			texts = append(texts, result.ParsedText)
		}
	}

	text := strings.TrimSpace(strings.Join(texts, "\n"))
	if text == "" {
		return "", ErrNoText
	}

	return text, nil
}

// errorText flattens the ErrorMessage field, which the API returns as either
// a string or an array of strings.
func (r *ocrSpaceResponse) errorText() string {
	var list []string
	if err := json.Unmarshal(r.ErrorMessage, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	var single string
	if err := json.Unmarshal(r.ErrorMessage, &single); err == nil && single != "" {
		return single
	}
	if r.ErrorDetails != "" {
		return r.ErrorDetails
	}
	return "unknown error"
}
