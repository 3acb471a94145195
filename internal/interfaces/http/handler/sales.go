package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/crosslist/backend/internal/application/sales"
	"github.com/crosslist/backend/internal/domain/sales"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// SaleResponse is the API shape of a sale
type SaleResponse struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	Platform           string    `json:"platform"`
	SalePrice          string    `json:"sale_price"`
	ShippingCost       string    `json:"shipping_cost"`
	PlatformFee        string    `json:"platform_fee"`
	PaymentFee         string    `json:"payment_fee"`
	NetProfit          string    `json:"net_profit"`
	BuyerInfo          string    `json:"buyer_info,omitempty"`
	SoldAt             time.Time `json:"sold_at"`
	SyncedToAccounting bool      `json:"synced_to_accounting"`
	AccountingRowRef   string    `json:"accounting_row_ref,omitempty"`
}

// NewSaleResponse converts a domain sale to its API shape
func NewSaleResponse(s *sales.Sale) SaleResponse {
	return SaleResponse{
		ID:                 s.ID,
		ProductID:          s.ProductID,
		Platform:           s.PlatformCode.String(),
		SalePrice:          s.SalePrice.StringFixed(2),
		ShippingCost:       s.ShippingCost.StringFixed(2),
		PlatformFee:        s.PlatformFee.StringFixed(2),
		PaymentFee:         s.PaymentFee.StringFixed(2),
		NetProfit:          s.NetProfit.StringFixed(2),
		BuyerInfo:          s.BuyerInfo,
		SoldAt:             s.SoldAt,
		SyncedToAccounting: s.SyncedToAccounting,
		AccountingRowRef:   s.AccountingRowRef,
	}
}

// RetrySweepResponse reports the outcome of an accounting retry sweep
type RetrySweepResponse struct {
	Synced int `json:"synced"`
}

// SalesHandler handles sale endpoints
type SalesHandler struct {
	BaseHandler
	recorder *salesapp.Recorder
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(recorder *salesapp.Recorder) *SalesHandler {
	return &SalesHandler{recorder: recorder}
}

// RegisterRoutes registers sale routes
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	salesGroup := rg.Group("/sales")
	{
		salesGroup.GET("", h.List)
		salesGroup.GET("/:id", h.Get)
		salesGroup.POST("/retry-accounting", h.RetryAccounting)
	}
}

// List handles GET /sales. An optional product_id query narrows the
// result to one product's sales.
func (h *SalesHandler) List(c *gin.Context) {
	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := uuid.Parse(productIDStr)
		if err != nil {
			h.BadRequest(c, "invalid product ID")
			return
		}
		h.respondWithSales(c, func() ([]sales.Sale, error) {
			return h.recorder.ListSalesByProduct(c.Request.Context(), productID)
		})
		return
	}

	h.respondWithSales(c, func() ([]sales.Sale, error) {
		return h.recorder.ListSales(c.Request.Context())
	})
}

// Get handles GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid sale ID")
		return
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid sale ID")
		return
	}

	sale, err := h.recorder.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewSaleResponse(sale))
}

// RetryAccounting handles POST /sales/retry-accounting
func (h *SalesHandler) RetryAccounting(c *gin.Context) {
	synced, err := h.recorder.RetryUnsynced(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RetrySweepResponse{Synced: synced})
}

func (h *SalesHandler) respondWithSales(c *gin.Context, fetch func() ([]sales.Sale, error)) {
	results, err := fetch()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]SaleResponse, len(results))
	for i := range results {
		responses[i] = NewSaleResponse(&results[i])
	}
	h.Success(c, responses)
}
