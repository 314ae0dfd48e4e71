package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paletteml/artstyle-api/internal/catalog"
	"github.com/paletteml/artstyle-api/internal/config"
	"github.com/paletteml/artstyle-api/internal/handlers"
	"github.com/paletteml/artstyle-api/internal/model"
)

type nopPredictor struct{}

func (nopPredictor) Predict([]float32) ([]float64, error) {
	return nil, errors.New("not loaded in tests")
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := config.Config{AppEnv: "dev", MaxUploadBytes: 10 << 20, GalleryMaxLimit: 60}
	h := handlers.NewHandler(nopPredictor{}, model.DefaultLabels(), (*catalog.Store)(nil),
		cfg.MaxUploadBytes, cfg.GalleryMaxLimit)
	return NewRouter(cfg, h)
}

func TestRouter_Health(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Styles(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/styles", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var styles []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &styles))
	assert.Len(t, styles, 27)
}

func TestRouter_GalleryUnconfigured(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gallery?style=Cubism", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/predict-style", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := testRouter()

	// Generate one observation first so the histogram shows up in the scrape.
	warm := httptest.NewRecorder()
	router.ServeHTTP(warm, httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "artstyle_http_requests_total")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := testRouter()
	w := httptest.NewRecorder()

	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
