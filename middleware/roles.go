package middleware

import (
	"net/http"

	"restaurant-api/policy"

	"github.com/gin-gonic/gin"
)

// ActionFunc maps a request method to a policy action
type ActionFunc func(method string) string

// ReadWrite treats safe methods as reads and everything else as writes
func ReadWrite(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return policy.ActionRead
	}
	return policy.ActionWrite
}

// CRUD distinguishes create, update and delete writes
func CRUD(method string) string {
	switch method {
	case http.MethodPost:
		return policy.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return policy.ActionUpdate
	case http.MethodDelete:
		return policy.ActionDelete
	}
	return policy.ActionRead
}

type permissionKey struct {
	resource string
	action   string
}

const defaultDenyMessage = "You do not have permission to perform this action."

var denyMessages = map[permissionKey]string{
	{"menu", policy.ActionWrite}:                 "You must be a manager to perform write actions.",
	{"cart", policy.ActionRead}:                  "You must be a customer to perform this action.",
	{"cart", policy.ActionWrite}:                 "You must be a customer to perform this action.",
	{"orders", policy.ActionCreate}:              "You must be a customer to perform this action.",
	{"orders", policy.ActionUpdate}:              "You must be a manager or delivery crew member to perform this action.",
	{"orders", policy.ActionDelete}:              "You must be a manager to perform this action.",
	{"groups.manager", policy.ActionRead}:        "You must be an admin user or a manager to perform this action.",
	{"groups.manager", policy.ActionWrite}:       "You must be an admin user to perform this action.",
	{"groups.delivery_crew", policy.ActionRead}:  "You must be a manager or an admin user to perform this action.",
	{"groups.delivery_crew", policy.ActionWrite}: "You must be a manager or an admin user to perform this action.",
	{"groups.customer", policy.ActionRead}:       "You must be a manager or an admin user to perform this action.",
}

// DenyMessage returns the message sent when an action on resource is refused
func DenyMessage(resource, action string) string {
	if msg, ok := denyMessages[permissionKey{resource, action}]; ok {
		return msg
	}
	return defaultDenyMessage
}

// Permit enforces the authorization policy for resource. Must run after AuthRequired.
func Permit(authz *policy.Authorizer, resource string, actionFor ActionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		action := actionFor(c.Request.Method)
		allowed, err := authz.Allowed(user, resource, action)
		if err != nil {
			Logger(c).Error("evaluate policy", "resource", resource, "action", action, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "A server error occurred."})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": DenyMessage(resource, action)})
			return
		}
		c.Next()
	}
}
