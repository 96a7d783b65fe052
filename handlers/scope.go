package handlers

import (
	"net/http"

	"restaurant-api/config"

	"github.com/gin-gonic/gin"
)

// Rows written while demo mode is on are demo rows; production rows stay read-only.
const (
	msgModifyProduction = "Cannot modify production data in demo mode."
	msgDeleteProduction = "Cannot delete production data in demo mode."
)

func demoMode() bool {
	return config.Settings.Demo.Enabled
}

// canModify refuses updates of production rows in demo mode
func canModify(c *gin.Context, isDemo bool) bool {
	if demoMode() && !isDemo {
		respondError(c, http.StatusForbidden, msgModifyProduction)
		return false
	}
	return true
}

// canDelete refuses deletes of production rows in demo mode
func canDelete(c *gin.Context, isDemo bool) bool {
	if demoMode() && !isDemo {
		respondError(c, http.StatusForbidden, msgDeleteProduction)
		return false
	}
	return true
}
