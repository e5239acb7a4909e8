package controllers

import (
	"errors"
	"net/http"
	"research-portal-api/config"
	"research-portal-api/services"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// currentUserID extracts the authenticated user ID set by the auth
// middleware.
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(int)
	return userID, ok
}

// currentRoleID extracts the authenticated role ID set by the auth
// middleware.
func currentRoleID(c *gin.Context) (int, bool) {
	value, exists := c.Get("roleID")
	if !exists {
		return 0, false
	}
	roleID, ok := value.(int)
	return roleID, ok
}

// resolveCapability loads the acting user's capability set for this request.
func resolveCapability(c *gin.Context) (*services.Capability, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return nil, false
	}
	cap, err := services.ResolveCapability(config.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
		return nil, false
	}
	return cap, true
}

// idParam parses a positive integer path parameter.
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// respondServiceError maps a service error kind to an HTTP status. The kind
// and message travel together so the caller always learns why the action
// was rejected.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, services.ErrInvalidTransition):
		status, kind = http.StatusUnprocessableEntity, "invalid_transition"
	case errors.Is(err, services.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, services.ErrUnresolvedSuggestions):
		status, kind = http.StatusConflict, "unresolved_suggestions"
	case errors.Is(err, services.ErrPolicyNotFound):
		status, kind = http.StatusUnprocessableEntity, "policy_not_found"
	case errors.Is(err, services.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}
