package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	productsapp "github.com/swiftcourier/courier-api/internal/domains/products/application"
	productdomain "github.com/swiftcourier/courier-api/internal/domains/products/domain"
	productports "github.com/swiftcourier/courier-api/internal/domains/products/ports"
	apierrors "github.com/swiftcourier/courier-api/internal/shared/errors"
)

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SKU         string `json:"sku"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"priceCents"`
}

type productUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	SKU         *string `json:"sku"`
	Category    *string `json:"category"`
	PriceCents  *int64  `json:"priceCents"`
}

type productResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	SKU         string    `json:"sku,omitempty"`
	Category    string    `json:"category,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func fromProduct(product *productdomain.Product) productResponse {
	return productResponse{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		SKU:         product.SKU,
		Category:    product.Category,
		PriceCents:  product.PriceCents,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func (s *Server) createProduct(c *gin.Context) {
	var payload productRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	product, err := s.products.Create(c.Request.Context(), productsapp.CreateInput{
		Name:        payload.Name,
		Description: payload.Description,
		SKU:         payload.SKU,
		Category:    payload.Category,
		PriceCents:  payload.PriceCents,
	})
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondCreated(c, fromProduct(product))
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid product id"))
		return
	}
	product, err := s.products.GetByID(c.Request.Context(), id)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, fromProduct(product))
}

func (s *Server) updateProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid product id"))
		return
	}
	var payload productUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.responder.RespondError(c, apierrors.BadRequest(err.Error()))
		return
	}
	product, err := s.products.Update(c.Request.Context(), id, productsapp.UpdateInput{
		Name:        payload.Name,
		Description: payload.Description,
		SKU:         payload.SKU,
		Category:    payload.Category,
		PriceCents:  payload.PriceCents,
	})
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, fromProduct(product))
}

func (s *Server) deleteProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		s.responder.RespondError(c, apierrors.BadRequest("invalid product id"))
		return
	}
	if err := s.products.Delete(c.Request.Context(), id); err != nil {
		s.responder.RespondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": true})
}

func (s *Server) listProducts(c *gin.Context) {
	query := productports.Query{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Limit:    intQuery(c, "limit"),
	}
	products, err := s.products.List(c.Request.Context(), query)
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	result := make([]productResponse, 0, len(products))
	for _, product := range products {
		result = append(result, fromProduct(product))
	}
	respondList(c, result, len(result))
}
