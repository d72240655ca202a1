package ui

import (
	"log"
	"strconv"

	apperrors "crmqc/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError renders err as {"code", "error"} with the status of its code
func respondError(c *gin.Context, err error) {
	code := apperrors.GetCode(apperrors.FromDomain(err))
	status := apperrors.HTTPStatus(code)
	if status >= 500 {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"code":  code,
		"error": err.Error(),
	})
}

func badRequest(c *gin.Context, message string) {
	respondError(c, apperrors.InvalidInput(message))
}

// intParam parses a path parameter
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be an integer")
		return 0, false
	}
	return v, true
}

// bindOptional decodes a JSON body into v when one is present, leaving v's
// prefilled defaults untouched otherwise.
func bindOptional(c *gin.Context, v interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
