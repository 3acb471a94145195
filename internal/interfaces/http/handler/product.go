package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogapp "github.com/crosslist/backend/internal/application/catalog"
	"github.com/crosslist/backend/internal/domain/catalog"
	"github.com/crosslist/backend/internal/interfaces/http/dto"
)

// CreateProductRequest is the request body for product creation
type CreateProductRequest struct {
	Title       string   `json:"title" binding:"required,max=255"`
	Description string   `json:"description"`
	Price       string   `json:"price" binding:"required,money"`
	Category    string   `json:"category" binding:"max=100"`
	Brand       string   `json:"brand" binding:"max=100"`
	Size        string   `json:"size" binding:"max=50"`
	Color       string   `json:"color" binding:"max=50"`
	Condition   string   `json:"condition" binding:"max=50"`
	ImageURLs   []string `json:"image_urls" binding:"omitempty,dive,url"`
}

// UpdateProductRequest is the request body for product updates
type UpdateProductRequest CreateProductRequest

// ProductResponse is the API shape of a product
type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Price       string    `json:"price"`
	Category    string    `json:"category,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Size        string    `json:"size,omitempty"`
	Color       string    `json:"color,omitempty"`
	Condition   string    `json:"condition,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductResponse converts a domain product to its API shape
func NewProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Category:    p.Category,
		Brand:       p.Brand,
		Size:        p.Size,
		Color:       p.Color,
		Condition:   p.Condition,
		ImageURLs:   p.ImageURLs,
		Status:      p.Status.String(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProductHandler handles product endpoints
type ProductHandler struct {
	BaseHandler
	service *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(service *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:id", h.Get)
		products.PUT("/:id", h.Update)
		products.POST("/:id/deactivate", h.Deactivate)
		products.POST("/:id/activate", h.Activate)
	}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input, err := createInputFromRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, NewProductResponse(product))
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := catalog.ProductFilter{
		SearchKeyword: req.Search,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	if req.Status != "" {
		status := catalog.ProductStatus(req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "unknown product status: "+req.Status)
			return
		}
		filter.Status = &status
	}

	result, err := h.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductResponse, len(result.Products))
	for i := range result.Products {
		responses[i] = NewProductResponse(&result.Products[i])
	}

	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}
	h.SuccessWithMeta(c, responses, result.Total, page, pageSize)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.bindProductID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.bindProductID(c)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input, err := createInputFromRequest(CreateProductRequest(req))
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.service.UpdateProduct(c.Request.Context(), id, catalogapp.UpdateProductInput(input))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// Deactivate handles POST /products/:id/deactivate
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := h.bindProductID(c)
	if !ok {
		return
	}

	product, err := h.service.DeactivateProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// Activate handles POST /products/:id/activate
func (h *ProductHandler) Activate(c *gin.Context) {
	id, ok := h.bindProductID(c)
	if !ok {
		return
	}

	product, err := h.service.ActivateProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewProductResponse(product))
}

// bindProductID parses the :id path parameter
func (h *ProductHandler) bindProductID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "invalid product ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "invalid product ID")
		return uuid.Nil, false
	}
	return id, true
}

// createInputFromRequest converts the API request to the use-case input
func createInputFromRequest(req CreateProductRequest) (catalogapp.CreateProductInput, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return catalogapp.CreateProductInput{}, err
	}
	return catalogapp.CreateProductInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       price,
		Category:    req.Category,
		Brand:       req.Brand,
		Size:        req.Size,
		Color:       req.Color,
		Condition:   req.Condition,
		ImageURLs:   req.ImageURLs,
	}, nil
}
