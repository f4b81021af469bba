package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobrapixel/ocr-extractor/internal/models"
	"github.com/cobrapixel/ocr-extractor/internal/services"
)

func TestPing(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ocr/ping", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExtractLocal(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, text: "TEST"})

	body, contentType := multipartUpload(t, "file", "nota.png", "image/png", testPNG(t, 10, 10), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, envelope := doRequest(t, env.app, req)
	require.Equal(t, http.StatusOK, status)
	require.True(t, envelope.Success)

	data := envelope.Data.(map[string]interface{})
	assert.Contains(t, data["text"].(string), "TEST")
	assert.Equal(t, "library", data["provider"])
	assert.Equal(t, "nota.png", data["source_filename"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestExtractLocal_MissingFile(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, text: "TEST"})

	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", strings.NewReader(""))
	status, envelope := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, envelope.Success)
}

func TestExtractLocal_RejectsNonImage(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, text: "TEST"})

	body, contentType := multipartUpload(t, "file", "doc.pdf", "application/pdf", []byte("%PDF-1.4"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, _ := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExtractLocal_UnknownProvider(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, text: "TEST"})

	body, contentType := multipartUpload(t, "file", "nota.png", "image/png", testPNG(t, 10, 10),
		map[string]string{"provider": "quantum"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, _ := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestExtractLocal_ProviderUnavailable(t *testing.T) {
	// No providers registered at all
	env := newTestEnv(t)

	body, contentType := multipartUpload(t, "file", "nota.png", "image/png", testPNG(t, 10, 10), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, _ := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestExtractLocal_NoTextDetected(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, err: services.ErrNoText})

	body, contentType := multipartUpload(t, "file", "blanco.png", "image/png", testPNG(t, 10, 10), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, _ := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestExtractLocal_EngineFailure(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderLibrary, err: errors.New("engine crashed")})

	body, contentType := multipartUpload(t, "file", "nota.png", "image/png", testPNG(t, 10, 10), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, _ := doRequest(t, env.app, req)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestExtractCloud(t *testing.T) {
	env := newTestEnv(t, &stubProvider{kind: models.ProviderCloud, text: "NOTA MANUSCRITA"})

	body, contentType := multipartUpload(t, "file", "manuscrito.png", "image/png", testPNG(t, 10, 10), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/cloud", body)
	req.Header.Set("Content-Type", contentType)

	status, envelope := doRequest(t, env.app, req)
	require.Equal(t, http.StatusOK, status)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "NOTA MANUSCRITA", data["text"])
	assert.Equal(t, "cloud", data["provider"])
}

func TestExtractLocal_FallbackToCloud(t *testing.T) {
	env := newTestEnv(t,
		&stubProvider{kind: models.ProviderLibrary, err: errors.New("engine crashed")},
		&stubProvider{kind: models.ProviderCloud, text: "DESDE LA NUBE"},
	)

	body, contentType := multipartUpload(t, "file", "nota.png", "image/png", testPNG(t, 10, 10),
		map[string]string{"fallback": "true"})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/", body)
	req.Header.Set("Content-Type", contentType)

	status, envelope := doRequest(t, env.app, req)
	require.Equal(t, http.StatusOK, status)

	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, "cloud", data["provider"])
	assert.Equal(t, "DESDE LA NUBE", data["text"])
}
