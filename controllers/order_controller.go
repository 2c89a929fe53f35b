package controllers

import (
	"net/http"

	"inventory-service/models"
	"inventory-service/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := ctl.orders.Create(c.Request.Context(), account, services.NewOrderInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (ctl *OrderController) ListOrders(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	orders, err := ctl.orders.List(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) GetOrder(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}
	order, err := ctl.orders.Get(c.Request.Context(), account, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctl *OrderController) UpdateOrder(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := ctl.orders.Update(c.Request.Context(), account, orderID, services.NewOrderInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctl *OrderController) DeleteOrder(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "order")
	if !ok {
		return
	}
	result, err := ctl.orders.Delete(c.Request.Context(), account, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Order deleted and stock restored",
		"order_id":        result.OrderID,
		"restocked_items": result.RestockedItems,
	})
}
