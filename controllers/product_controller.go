package controllers

import (
	"net/http"

	"inventory-service/models"
	"inventory-service/services"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	products *services.ProductService
}

func NewProductController(products *services.ProductService) *ProductController {
	return &ProductController{products: products}
}

func (ctl *ProductController) ListProducts(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	products, err := ctl.products.List(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (ctl *ProductController) GetProduct(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product")
	if !ok {
		return
	}
	product, err := ctl.products.Get(c.Request.Context(), account, productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctl *ProductController) CreateProduct(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	product, err := ctl.products.Create(c.Request.Context(), account, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (ctl *ProductController) UpdateProduct(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product")
	if !ok {
		return
	}
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	product, err := ctl.products.Update(c.Request.Context(), account, productID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (ctl *ProductController) DeleteProduct(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product")
	if !ok {
		return
	}
	if err := ctl.products.Delete(c.Request.Context(), account, productID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted", "product_id": productID})
}

// ListProductHistory serves ?limit=&offset= paging over the audit log.
func (ctl *ProductController) ListProductHistory(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	productID, ok := pathID(c, "product")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	history, err := ctl.products.History(c.Request.Context(), account, productID, services.Page{Limit: limit, Offset: offset})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
