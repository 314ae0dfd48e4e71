package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/paletteml/artstyle-api/internal/catalog"
	"github.com/paletteml/artstyle-api/internal/metrics"
	"github.com/paletteml/artstyle-api/internal/model"
)

// Predictor scores a preprocessed input tensor and returns the probability
// distribution over all styles.
type Predictor interface {
	Predict(tensor []float32) ([]float64, error)
}

// Gallery samples catalog rows for a style.
type Gallery interface {
	FindByStyle(ctx context.Context, style string, limit int, excludeID string) ([]catalog.Artwork, error)
}

// Handler holds the HTTP boundary. Request parsing and validation stop here;
// the model and catalog layers only ever see checked inputs.
type Handler struct {
	predictor       Predictor
	labels          *model.LabelMap
	gallery         Gallery
	maxUploadBytes  int64
	galleryMaxLimit int
}

func NewHandler(predictor Predictor, labels *model.LabelMap, gallery Gallery, maxUploadBytes int64, galleryMaxLimit int) *Handler {
	return &Handler{
		predictor:       predictor,
		labels:          labels,
		gallery:         gallery,
		maxUploadBytes:  maxUploadBytes,
		galleryMaxLimit: galleryMaxLimit,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Styles returns every style label in index order.
func (h *Handler) Styles(c *gin.Context) {
	c.JSON(http.StatusOK, h.labels.Names())
}

type predictQuery struct {
	TopK int `form:"top_k,default=5"`
}

// PredictStyle classifies an uploaded image. The file arrives as multipart
// form field "file"; top_k is a query parameter defaulting to 5 and clamped
// to [1, number of labels].
func (h *Handler) PredictStyle(c *gin.Context) {
	var q predictQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top_k must be an integer"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required in form field 'file'"})
		return
	}

	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge,
			gin.H{"error": fmt.Sprintf("image exceeds the %d byte upload limit", h.maxUploadBytes)})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	defer src.Close()

	raw, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	tensor, err := model.Preprocess(raw, file.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnsupportedImageType):
			c.JSON(http.StatusBadRequest,
				gin.H{"error": "unsupported file type: use image/jpeg, image/png, or image/webp"})
		case errors.Is(err, model.ErrCorruptImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		default:
			log.Error().Err(err).Msg("Preprocessing failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to preprocess image"})
		}
		return
	}

	probs, err := h.predictor.Predict(tensor)
	if err != nil {
		log.Error().Err(err).Msg("Prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
		return
	}

	top := model.TopK(probs, q.TopK, h.labels)
	metrics.PredictionsTotal.WithLabelValues(top[0].Style).Inc()

	c.JSON(http.StatusOK, model.PredictResponse{
		Predicted: top[0],
		TopK:      top,
	})
}

type galleryQuery struct {
	Style     string `form:"style" binding:"required"`
	Limit     int    `form:"limit,default=24"`
	ExcludeID string `form:"exclude_id"`
}

// GalleryResponse is the payload for GET /gallery.
type GalleryResponse struct {
	Style string            `json:"style"`
	Count int               `json:"count"`
	Items []catalog.Artwork `json:"items"`
}

// Gallery returns a random sample of catalog artworks matching a style.
// limit defaults to 24 and is clamped to [1, configured maximum].
func (h *Handler) Gallery(c *gin.Context) {
	var q galleryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		if c.Query("style") == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "style query parameter is required"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
		return
	}

	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > h.galleryMaxLimit {
		q.Limit = h.galleryMaxLimit
	}

	items, err := h.gallery.FindByStyle(c.Request.Context(), q.Style, q.Limit, q.ExcludeID)
	if err != nil {
		if errors.Is(err, catalog.ErrUnconfigured) {
			c.JSON(http.StatusServiceUnavailable,
				gin.H{"error": "gallery is unavailable: no catalog store configured"})
			return
		}
		log.Error().Err(err).Str("style", q.Style).Msg("Gallery lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gallery lookup failed"})
		return
	}

	c.JSON(http.StatusOK, GalleryResponse{
		Style: q.Style,
		Count: len(items),
		Items: items,
	})
}
