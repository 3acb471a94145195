package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/crosslist/backend/internal/application/sync"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// ImportRequest is the request body for a platform import
type ImportRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// CrossPostRequest is the request body for cross-posting a product.
// An empty platform list means every registered platform.
type CrossPostRequest struct {
	Platforms []string `json:"platforms"`
}

// SyncHandler handles synchronization endpoints
type SyncHandler struct {
	BaseHandler
	service *syncapp.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service *syncapp.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// RegisterRoutes registers synchronization routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/import", h.Import)
		sync.POST("/products/:id/crosspost", h.CrossPost)
		sync.POST("/check-sold", h.CheckSold)
		sync.POST("/all", h.SyncAll)
		sync.GET("/stats", h.Stats)
	}
}

// Import handles POST /sync/import
func (h *SyncHandler) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	code, ok := h.parsePlatform(c, req.Platform)
	if !ok {
		return
	}

	result, err := h.service.ImportFromPlatform(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CrossPost handles POST /sync/products/:id/crosspost
func (h *SyncHandler) CrossPost(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}
	productID, err := uuid.Parse(idReq.ID)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return
	}

	// The body is optional; no body means all registered platforms
	var req CrossPostRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BadRequest(c, err.Error())
		return
	}

	codes := make([]integration.PlatformCode, 0, len(req.Platforms))
	for _, platform := range req.Platforms {
		code, ok := h.parsePlatform(c, platform)
		if !ok {
			return
		}
		codes = append(codes, code)
	}

	result, err := h.service.CrossPost(c.Request.Context(), productID, codes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CheckSold handles POST /sync/check-sold
func (h *SyncHandler) CheckSold(c *gin.Context) {
	result, err := h.service.CheckSold(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncAll handles POST /sync/all
func (h *SyncHandler) SyncAll(c *gin.Context) {
	result, err := h.service.SyncAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Stats handles GET /sync/stats
func (h *SyncHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// parsePlatform validates a platform code from the request
func (h *SyncHandler) parsePlatform(c *gin.Context, platform string) (integration.PlatformCode, bool) {
	code := integration.PlatformCode(platform)
	if !code.IsValid() {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodePlatformUnknown), dto.ErrCodePlatformUnknown,
			"unknown platform: "+platform)
		return "", false
	}
	return code, true
}
