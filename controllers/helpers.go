package controllers

import (
	"log"
	"net/http"
	"strconv"

	"inventory-service/middlewares"
	"inventory-service/services"

	"github.com/gin-gonic/gin"
)

var statusByKind = map[services.Kind]int{
	services.KindValidation:        http.StatusBadRequest,
	services.KindNotFound:          http.StatusNotFound,
	services.KindInsufficientStock: http.StatusConflict,
	services.KindConflict:          http.StatusConflict,
	services.KindStorage:           http.StatusInternalServerError,
}

// respondError writes {"error", "kind"}. Storage details stay in the log.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := err.Error()
	if kind == services.KindStorage {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message = "Database error"
	}
	c.JSON(status, gin.H{"error": message, "kind": kind})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "kind": services.KindValidation})
}

func accountID(c *gin.Context) (int64, bool) {
	id, ok := middlewares.AccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "kind": services.KindUnauthenticated})
	}
	return id, ok
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name+" ID")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Invalid "+key)
		return 0, false
	}
	return n, true
}
