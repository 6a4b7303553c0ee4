package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	productdomain "github.com/resqfood/resq/internal/product/domain"
)

type CreateProductRequest struct {
	StoreID       string         `json:"store_id"`
	Title         string         `json:"title"`
	Description   *string        `json:"description"`
	OriginalPrice int64          `json:"original_price"`
	DiscountPrice int64          `json:"discount_price"`
	StockQuantity int            `json:"stock_quantity"`
	ExpiryDate    time.Time      `json:"expiry_date"`
	CO2Saved      float64        `json:"co2_saved"`
	Metadata      map[string]any `json:"metadata"`
}

// CreateProduct accepts a JSON body, or multipart/form-data when the listing
// carries an image. The image is uploaded before the row insert; the service
// deletes the blob again if the insert fails.
func (s *Server) CreateProduct(c *gin.Context) {
	req, err := parseCreateProductRequest(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.productsvc.Create(c.Request.Context(), *req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func parseCreateProductRequest(c *gin.Context) (*productdomain.CreateRequest, error) {
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var body CreateProductRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			return nil, invalidRequestError()
		}
		return &productdomain.CreateRequest{
			StoreID:       body.StoreID,
			Title:         body.Title,
			Description:   body.Description,
			OriginalPrice: body.OriginalPrice,
			DiscountPrice: body.DiscountPrice,
			StockQuantity: body.StockQuantity,
			ExpiryDate:    body.ExpiryDate,
			CO2Saved:      body.CO2Saved,
			Metadata:      body.Metadata,
		}, nil
	}

	req := &productdomain.CreateRequest{
		StoreID: c.PostForm("store_id"),
		Title:   c.PostForm("title"),
	}
	if desc := strings.TrimSpace(c.PostForm("description")); desc != "" {
		req.Description = &desc
	}

	var err error
	if req.OriginalPrice, err = strconv.ParseInt(c.PostForm("original_price"), 10, 64); err != nil {
		return nil, newValidationError("original_price", "invalid_price", "original price must be an integer")
	}
	if req.DiscountPrice, err = strconv.ParseInt(c.PostForm("discount_price"), 10, 64); err != nil {
		return nil, newValidationError("discount_price", "invalid_price", "discount price must be an integer")
	}
	if req.StockQuantity, err = strconv.Atoi(c.PostForm("stock_quantity")); err != nil {
		return nil, newValidationError("stock_quantity", "invalid_stock", "stock quantity must be an integer")
	}
	if req.ExpiryDate, err = time.Parse(time.RFC3339, c.PostForm("expiry_date")); err != nil {
		return nil, newValidationError("expiry_date", "invalid_expiry", "expiry date must be RFC3339")
	}
	if raw := strings.TrimSpace(c.PostForm("co2_saved")); raw != "" {
		if req.CO2Saved, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, newValidationError("co2_saved", "invalid_co2", "co2 saved must be a number")
		}
	}

	fileHeader, err := c.FormFile("image")
	if err == nil && fileHeader != nil {
		file, oerr := fileHeader.Open()
		if oerr != nil {
			return nil, invalidRequestError()
		}
		// Closed when the request body is released; the upload consumes it
		// before the handler returns.
		req.Image = &productdomain.ImageUpload{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        file,
		}
	}

	return req, nil
}

func (s *Server) ListProducts(c *gin.Context) {
	req := productdomain.ListRequest{
		StoreID:        c.Query("store_id"),
		IncludeExpired: c.Query("include_expired") == "true",
		IncludeSoldOut: c.Query("include_sold_out") == "true",
	}

	items, err := s.productsvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": items})
}

func (s *Server) GetProduct(c *gin.Context) {
	resp, err := s.productsvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	if err := s.productsvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
