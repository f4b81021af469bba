package handlers

import (
	"errors"
	"log"
	"mime"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cobrapixel/ocr-extractor/internal/database"
	"github.com/cobrapixel/ocr-extractor/internal/models"
	"github.com/cobrapixel/ocr-extractor/internal/services"
)

// SaveExtraction handles POST /api/save/: writes the text artifact and
// records the extraction in the database.
func (h *Handler) SaveExtraction(c *fiber.Ctx) error {
	var req models.SaveExtractionRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Text) == "" {
		return Error(c, fiber.StatusBadRequest, "text is required")
	}

	provider := models.ProviderKind(req.Provider)
	if req.Provider != "" && !provider.Valid() {
		return Error(c, fiber.StatusBadRequest, "unknown provider")
	}

	artifactName := req.Filename
	if artifactName == "" {
		artifactName = services.GenerateArtifactName()
	}

	if err := h.artifacts.Write(c.Context(), artifactName, strings.TrimSpace(req.Text)); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidArtifactName):
			return Error(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrArtifactExists):
			return Error(c, fiber.StatusConflict, err.Error())
		default:
			return Error(c, fiber.StatusInternalServerError, "failed to store artifact")
		}
	}

	rec := &models.ExtractionRecord{
		SourceFilename: req.SourceFilename,
		ExtractedText:  req.Text,
		Provider:       provider,
		ImageMime:      req.ImageMime,
		ArtifactName:   &artifactName,
	}

	recordID, err := h.db.SaveExtraction(c.Context(), rec)
	if err != nil {
		log.Printf("Warning: Failed to save extraction record, artifact %s is orphaned: %v", artifactName, err)
		return Error(c, fiber.StatusInternalServerError, "failed to save extraction record")
	}

	return Success(c, models.SaveExtractionResponse{
		Saved:        true,
		RecordID:     recordID,
		ArtifactName: artifactName,
	})
}

// DownloadArtifact handles GET /api/download/:filename
func (h *Handler) DownloadArtifact(c *fiber.Ctx) error {
	filename := c.Params("filename")

	data, err := h.artifacts.Read(c.Context(), filename)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidArtifactName):
			return Error(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrArtifactNotFound):
			return Error(c, fiber.StatusNotFound, "artifact not found")
		default:
			return Error(c, fiber.StatusInternalServerError, "failed to read artifact")
		}
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	return c.Send(data)
}

// ListRecords returns a paginated list of saved extraction records
func (h *Handler) ListRecords(c *fiber.Ctx) error {
	params := &models.ExtractionListParams{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}

	// Validate limits
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	records, total, err := h.db.ListExtractions(c.Context(), params)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list records")
	}

	return SuccessWithMeta(c, records, total, params.Limit, params.Offset)
}

// GetRecord returns a single extraction record
func (h *Handler) GetRecord(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid record ID")
	}

	rec, err := h.db.GetExtractionByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrExtractionNotFound) {
			return Error(c, fiber.StatusNotFound, "record not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get record")
	}

	return Success(c, rec)
}

// DeleteRecord removes an extraction record
func (h *Handler) DeleteRecord(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid record ID")
	}

	if err := h.db.DeleteExtraction(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrExtractionNotFound) {
			return Error(c, fiber.StatusNotFound, "record not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete record")
	}

	return Success(c, fiber.Map{"deleted": true})
}
