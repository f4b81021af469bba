package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/cobrapixel/ocr-extractor/internal/config"
	"github.com/cobrapixel/ocr-extractor/internal/database"
	"github.com/cobrapixel/ocr-extractor/internal/middleware"
	"github.com/cobrapixel/ocr-extractor/internal/models"
	"github.com/cobrapixel/ocr-extractor/internal/services"
)

// fakeRecordStore is an in-memory RecordStore for handler tests
type fakeRecordStore struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]*models.ExtractionRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{nextID: 1, rows: make(map[int]*models.ExtractionRecord)}
}

func (s *fakeRecordStore) SaveExtraction(ctx context.Context, rec *models.ExtractionRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	stored := *rec
	s.rows[rec.ID] = &stored
	return rec.ID, nil
}

func (s *fakeRecordStore) GetExtractionByID(ctx context.Context, id int) (*models.ExtractionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[id]
	if !ok {
		return nil, database.ErrExtractionNotFound
	}
	return rec, nil
}

func (s *fakeRecordStore) ListExtractions(ctx context.Context, params *models.ExtractionListParams) ([]*models.ExtractionRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []*models.ExtractionRecord
	for _, rec := range s.rows {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if params.Offset < len(all) {
		all = all[params.Offset:]
	} else {
		all = nil
	}
	if len(all) > params.Limit {
		all = all[:params.Limit]
	}
	return all, total, nil
}

func (s *fakeRecordStore) DeleteExtraction(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return database.ErrExtractionNotFound
	}
	delete(s.rows, id)
	return nil
}

// stubProvider returns fixed text, standing in for a real OCR engine
type stubProvider struct {
	kind models.ProviderKind
	text string
	err  error
}

func (p *stubProvider) Kind() models.ProviderKind { return p.kind }

func (p *stubProvider) Extract(ctx context.Context, image []byte, languages string) (string, error) {
	return p.text, p.err
}

type testEnv struct {
	app   *fiber.App
	store *fakeRecordStore
	cfg   *config.Config
}

// newTestEnv wires the handler into a Fiber app with the same route table
// as cmd/server
func newTestEnv(t *testing.T, providers ...services.Provider) *testEnv {
	t.Helper()

	cfg := &config.Config{
		MaxUploadMB:    10,
		OCRConcurrency: 2,
		JWTSecret:      "test-secret",
	}

	registry := services.NewProviderRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	extractor := services.NewExtractor(registry, cfg.OCRConcurrency, cfg.MaxUploadBytes())

	artifacts, err := services.NewFileStore(t.TempDir())
	require.NoError(t, err)

	store := newFakeRecordStore()
	h := New(store, cfg, extractor, artifacts)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	api := app.Group("/api")

	ocr := api.Group("/ocr")
	ocr.Get("/ping", h.Ping)
	ocr.Post("/", h.ExtractLocal)
	ocr.Post("/cloud", h.ExtractCloud)

	api.Post("/save", h.SaveExtraction)
	api.Get("/download/:filename", h.DownloadArtifact)
	api.Get("/records", h.ListRecords)
	api.Get("/records/:id", h.GetRecord)
	api.Delete("/records/:id", h.DeleteRecord)

	return &testEnv{app: app, store: store, cfg: cfg}
}

// newAuthTestEnv wires the token endpoint and a protected save route
func newAuthTestEnv(t *testing.T, apiKeyHash string) *testEnv {
	t.Helper()

	env := newTestEnv(t)
	env.cfg.AuthEnabled = true
	env.cfg.APIKeyHash = apiKeyHash
	env.cfg.TokenExpiry = time.Hour

	registry := services.NewProviderRegistry()
	extractor := services.NewExtractor(registry, 1, env.cfg.MaxUploadBytes())
	artifacts, err := services.NewFileStore(t.TempDir())
	require.NoError(t, err)

	h := New(env.store, env.cfg, extractor, artifacts)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	api := app.Group("/api")
	api.Post("/auth/token", h.IssueToken)
	api.Post("/save", middleware.AuthRequired(env.cfg), h.SaveExtraction)

	env.app = app
	return env
}

// testPNG renders a small black-on-white PNG
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x > w/4 && x < 3*w/4 && y > h/4 && y < 3*h/4 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// multipartUpload builds a multipart body with an image file part and
// optional extra form fields
func multipartUpload(t *testing.T, fieldName, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// doRequest runs a request against the test app and decodes the envelope
func doRequest(t *testing.T, app *fiber.App, req *http.Request) (int, *APIResponse) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope APIResponse
	if len(raw) > 0 {
		// Some error paths respond with a bare {"error": ...} object
		_ = json.Unmarshal(raw, &envelope)
	}
	return resp.StatusCode, &envelope
}
