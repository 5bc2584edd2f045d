package api

import (
	"context"
	"fmt"
	"net/http"

	"cleanuri/pkg/errs"
	"cleanuri/pkg/extract"
	"cleanuri/pkg/models"
	"cleanuri/pkg/pricing"
	"cleanuri/pkg/site"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxBatchSize bounds the URIs accepted by one batch request.
const MaxBatchSize = 50

// Service is the part of extract.Service the handlers need.
type Service interface {
	Sites(ctx context.Context) ([]site.Descriptor, error)
	Canonize(ctx context.Context, raw string) (*extract.Canonical, error)
	Extract(ctx context.Context, raw string) (*models.Product, error)
	ExtractBatch(ctx context.Context, raws []string) []extract.BatchResult
	Quote(p *pricing.Pricing, quantity int) (*extract.Quote, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Sites(c *gin.Context) {
	descriptors, err := h.svc.Sites(c.Request.Context())
	if err != nil {
		WriteError(c, err)
		return
	}

	infos := make([]site.DescriptorInfo, 0, len(descriptors))
	for _, d := range descriptors {
		infos = append(infos, d.Info())
	}
	c.JSON(http.StatusOK, infos)
}

func (h *Handler) Canonize(c *gin.Context) {
	canonical, err := h.svc.Canonize(c.Request.Context(), c.Query("uri"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, canonical)
}

func (h *Handler) Extract(c *gin.Context) {
	product, err := h.svc.Extract(c.Request.Context(), c.Query("uri"))
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) ExtractBatch(c *gin.Context) {
	var uris []string
	if err := c.ShouldBindJSON(&uris); err != nil {
		WriteBadRequest(c, "Invalid JSON body. Expected an array of URIs.")
		return
	}
	if len(uris) == 0 {
		WriteError(c, errs.MissingValue("no URIs given"))
		return
	}
	if len(uris) > MaxBatchSize {
		WriteError(c, errs.InvalidArgument("at most %d URIs per batch, got %d", MaxBatchSize, len(uris)))
		return
	}

	results := h.svc.ExtractBatch(c.Request.Context(), uris)

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	requestLogger(c).Debug("batch extracted", zap.Int("uris", len(uris)), zap.Int("failed", failed))

	c.JSON(http.StatusOK, results)
}

type quoteRequest struct {
	Pricing  *pricing.Pricing `json:"pricing"`
	Quantity int              `json:"quantity"`
}

func (h *Handler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// pricing documents fail with coded errors, plain syntax errors do not
		if errs.Code(err) == "INTERNAL" {
			WriteBadRequest(c, fmt.Sprintf("Invalid JSON body: %v", err))
			return
		}
		WriteError(c, err)
		return
	}
	if req.Pricing == nil {
		WriteError(c, errs.MissingValue("pricing"))
		return
	}

	quote, err := h.svc.Quote(req.Pricing, req.Quantity)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
