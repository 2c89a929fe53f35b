package controllers

import (
	"net/http"

	"inventory-service/models"
	"inventory-service/services"

	"github.com/gin-gonic/gin"
)

type AlertController struct {
	alerts *services.AlertService
}

func NewAlertController(alerts *services.AlertService) *AlertController {
	return &AlertController{alerts: alerts}
}

func (ctl *AlertController) ListAlerts(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	alerts, err := ctl.alerts.List(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (ctl *AlertController) CreateAlert(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	var req models.StockAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	alert, err := ctl.alerts.Create(c.Request.Context(), account, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (ctl *AlertController) UpdateAlert(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	alertID, ok := pathID(c, "alert")
	if !ok {
		return
	}
	var req models.StockAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	alert, err := ctl.alerts.Update(c.Request.Context(), account, alertID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (ctl *AlertController) DeleteAlert(c *gin.Context) {
	account, ok := accountID(c)
	if !ok {
		return
	}
	alertID, ok := pathID(c, "alert")
	if !ok {
		return
	}
	if err := ctl.alerts.Delete(c.Request.Context(), account, alertID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock alert deleted", "alert_id": alertID})
}
