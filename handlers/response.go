package handlers

import (
	"net/http"

	"restaurant-api/middleware"

	"github.com/gin-gonic/gin"
)

// FieldErrors maps a request field to its validation messages
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// respond writes the {"detail", "data"} envelope; data is omitted when nil.
func respond(c *gin.Context, status int, detail string, data any) {
	body := gin.H{"detail": detail}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

func respondInvalid(c *gin.Context, errs FieldErrors) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid input.", "errors": errs})
}

func respondFieldError(c *gin.Context, field, msg string) {
	respondInvalid(c, FieldErrors{field: {msg}})
}

func respondNotFound(c *gin.Context) {
	respondError(c, http.StatusNotFound, "Not found.")
}

// respondServerError logs err and hides it from the client.
func respondServerError(c *gin.Context, msg string, err error) {
	middleware.Logger(c).Error(msg, "error", err, "path", c.Request.URL.Path)
	respondError(c, http.StatusInternalServerError, "A server error occurred.")
}
