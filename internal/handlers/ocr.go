package handlers

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cobrapixel/ocr-extractor/internal/models"
	"github.com/cobrapixel/ocr-extractor/internal/services"
)

// Ping reports OCR service liveness
func (h *Handler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ExtractLocal handles POST /api/ocr/ using a local provider.
// Form fields: file (required), provider (library|binary, default library),
// language (tesseract notation), fallback (true to chain other providers).
func (h *Handler) ExtractLocal(c *fiber.Ctx) error {
	kind := models.ProviderKind(c.FormValue("provider", string(models.ProviderLibrary)))
	switch kind {
	case models.ProviderLibrary, models.ProviderBinary:
		return h.extract(c, kind)
	case models.ProviderCloud:
		return Error(c, fiber.StatusBadRequest, "use /api/ocr/cloud/ for the cloud provider")
	default:
		return Error(c, fiber.StatusBadRequest, "unknown provider")
	}
}

// ExtractCloud handles POST /api/ocr/cloud/ using the OCR.Space provider
func (h *Handler) ExtractCloud(c *fiber.Ctx) error {
	return h.extract(c, models.ProviderCloud)
}

func (h *Handler) extract(c *fiber.Ctx, kind models.ProviderKind) error {
	file, err := c.FormFile("file")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return Error(c, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, GIF, WebP")
	}

	if file.Size > h.cfg.MaxUploadBytes() {
		return Error(c, fiber.StatusBadRequest, "file too large")
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}

	result, err := h.extractor.Extract(c.Context(), &services.ExtractRequest{
		Image:       imageBytes,
		Filename:    file.Filename,
		ContentType: contentType,
		Kind:        kind,
		Language:    c.FormValue("language"),
		Fallback:    c.FormValue("fallback") == "true",
	})
	if err != nil {
		return extractionError(c, err)
	}

	result.Timestamp = time.Now().UTC()
	return Success(c, result)
}

// extractionError maps extractor sentinels to HTTP statuses
func extractionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyUpload),
		errors.Is(err, services.ErrUploadTooLarge),
		errors.Is(err, services.ErrUnsupportedFormat),
		errors.Is(err, services.ErrImageTooLarge):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoText):
		return Error(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrProviderUnavailable):
		return Error(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return Error(c, fiber.StatusBadGateway, "OCR processing failed: "+err.Error())
	}
}

// isValidImageType checks if the content type is a valid image
func isValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, t := range validTypes {
		if strings.EqualFold(contentType, t) {
			return true
		}
	}
	return false
}
